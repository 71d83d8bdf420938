// Package strategy provides handler wrappers that control how concurrent
// invocations of one handler interleave.
//
//	reg.Register("report", strategy.Serialize(reportHandler))
//	reg.Register("lookup", strategy.Memoize(lookupHandler, true))
//
// Wrapped handlers keep the description of the handler they wrap.
package strategy
