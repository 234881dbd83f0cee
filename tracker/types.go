package tracker

// ErrorHandler receives the errors computations return after their first run.
type ErrorHandler func(c *Computation, err error)

type callback func()

type Option func(*Runtime)
