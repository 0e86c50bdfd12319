package utilities

// Ternary picks between two already evaluated values.
func Ternary[T any](cond bool, evalTrue, evalFalse T) T {
	if cond {
		return evalTrue
	}
	return evalFalse
}
