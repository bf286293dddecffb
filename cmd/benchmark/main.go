package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/dirtyparty/dirty"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	ww    = []int{1, 10, 100}
	hh    = []int{1, 10, 100, 1_000}
	iters = 100
)

const layout = dirty.Channel(0)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	log.Printf("warming up")

	benchmarkEager(true)
	benchmarkLazyAffected(true)
	benchmarkScopedDrain(true)
}

// grid builds w parallel chains of height h all hanging off one root:
// the usual propagate benchmark shape, expressed as dependency edges.
func grid(w, h int) (g *dirty.Graph[int], root int) {
	g = dirty.NewGraph[int]()
	root = 0
	next := 1
	for i := 0; i < w; i++ {
		prev := root
		for j := 0; j < h; j++ {
			if err := g.AddDependency(next, prev, layout, dirty.OnCycleAllow); err != nil {
				log.Fatal(err)
			}
			prev = next
			next++
		}
	}
	return g, root
}

func benchmarkEager(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Eager mark + plain sorted drain")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	scratch := dirty.NewScratch[int]()
	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			g, root := grid(w, h)
			ds := dirty.NewDirtySet[int]()
			eager := dirty.Eager[int]{Scratch: scratch}

			for i := 0; i < iters; i++ {
				start := time.Now()
				eager.Propagate(g, ds, root, layout)
				drained, status := dirty.DrainDirtySorted(ds, g, layout).Collect()
				tach.AddTime(time.Since(start))
				if status != dirty.DrainComplete {
					log.Fatalf("unexpected %v drain after emitting %d keys", status, len(drained))
				}
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("mark+drain: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkLazyAffected(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Lazy mark + affected sorted drain")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			g, root := grid(w, h)
			ds := dirty.NewDirtySet[int]()
			lazy := dirty.Lazy[int]{}

			for i := 0; i < iters; i++ {
				start := time.Now()
				lazy.Propagate(g, ds, root, layout)
				_, status := dirty.DrainAffectedSorted(ds, g, layout).Collect()
				tach.AddTime(time.Since(start))
				if status != dirty.DrainComplete {
					log.Fatalf("unexpected %v drain", status)
				}
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("mark+drain: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkScopedDrain(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Scoped drain (dependency closure of one leaf)")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	scratch := dirty.NewScratch[int]()
	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			g, root := grid(w, h)
			leaf := w * h // last key of the last chain
			ds := dirty.NewDirtySet[int]()
			eager := dirty.Eager[int]{Scratch: scratch}

			for i := 0; i < iters; i++ {
				eager.Propagate(g, ds, root, layout)
				start := time.Now()
				_, status := dirty.RunSorted(
					dirty.NewDrain(ds, g, layout).
						WithinDependenciesOf(leaf).
						WithScratch(scratch),
				).Collect()
				tach.AddTime(time.Since(start))
				if status != dirty.DrainComplete {
					log.Fatalf("unexpected %v drain", status)
				}
				ds.ClearAll()
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("scoped drain: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
