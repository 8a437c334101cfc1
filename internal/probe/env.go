package probe

// Discovery is the outcome of looking for one executable: either Found with a
// non-empty path, or NotFound.
type Discovery struct {
	path string
}

// Found returns a discovery for path. An empty path yields NotFound.
func Found(path string) Discovery {
	return Discovery{path: path}
}

// NotFound returns a discovery for a missing executable.
func NotFound() Discovery {
	return Discovery{}
}

// Path returns the resolved executable and whether it was found.
func (d Discovery) Path() (string, bool) {
	return d.path, d.path != ""
}

// Enabled reports whether the executable was found.
func (d Discovery) Enabled() bool {
	return d.path != ""
}

func (d Discovery) String() string {
	if d.path == "" {
		return "not found"
	}
	return d.path
}

// Env is the state of the host as seen by the launcher. It is built once at process
// start by Prober.Probe and then passed to every operation.
type Env struct {
	Root            string    // Directory of the bot installation
	Interpreter     Discovery // Python used to run the bot and helper scripts
	VCS             Discovery // git, needed for branch operations
	EnvManager      Discovery // conda, detected only
	DatabaseEnabled bool      // Database service confirmed running
	Branches        []string  // Known local and remote branches
	CurrentBranch   string    // Checked out branch, empty when unknown
}

// NewEnv returns an Env for the installation at root with nothing discovered yet.
func NewEnv(root string) *Env {
	return &Env{Root: root}
}
