package stage

// Health reports whether a stage can currently do useful work, with a short
// Detail when it cannot. Stage health feeds the daemon status snapshot and
// the preflight gate before workflow startup.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage as ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage as not ready, with detail explaining what is
// missing (a binary, a credential, a directory).
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
