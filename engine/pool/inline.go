package pool

type inline struct{}

// Inline returns a Pool that runs every job synchronously inside Submit.
// Useful for tools and tests that want builds to complete before Submit returns.
func Inline() Pool {
	return inline{}
}

func (inline) Submit(_ Priority, job func()) {
	job()
}
