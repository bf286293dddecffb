//go:build !dirtydebug

package dirty

const debugAsserts = false
