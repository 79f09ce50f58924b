package runner

import "strings"

// valueOptions are runner options whose value is the following argument.
var valueOptions = map[string]bool{
	"--order": true, "--seed": true,
	"-r": true, "--require": true,
	"-I": true,
	"-t": true, "--tag": true,
	"-e": true, "--example": true,
	"-E": true, "--example-matches": true,
	"-P": true, "--pattern": true,
	"--exclude-pattern": true,
	"--default-path":    true,
	"-f": true, "--format": true,
	"-o": true, "--out": true,
	"-O": true, "--options": true,
}

// Args is the user's runner argument list split into locations and
// pass-through options.
type Args struct {
	// Raw is the argument list as given, minus --bisect.
	Raw []string

	// Locations are positional paths (files, directories, ids, path:line).
	Locations []string

	// Options are replayed verbatim on every run, values kept with their flag.
	Options []string

	// Order is the --order value, if any.
	Order string

	// Seed is the --seed value, or N from --order rand:N, if any.
	Seed string

	// Bisect is true when --bisect was present; BisectVerbose for --bisect=verbose.
	Bisect        bool
	BisectVerbose bool
}

// ParseArgs splits raw runner arguments.
func ParseArgs(raw []string) Args {
	var a Args
	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		switch {
		case arg == "--bisect":
			a.Bisect = true
			continue
		case strings.HasPrefix(arg, "--bisect="):
			a.Bisect = true
			a.BisectVerbose = strings.TrimPrefix(arg, "--bisect=") == "verbose"
			continue
		case arg == "--":
			a.Raw = append(a.Raw, raw[i:]...)
			a.Locations = append(a.Locations, raw[i+1:]...)
			return a
		}

		a.Raw = append(a.Raw, arg)
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			a.Locations = append(a.Locations, arg)
			continue
		}

		name, value, inline := strings.Cut(arg, "=")
		if !inline && valueOptions[name] && i+1 < len(raw) {
			i++
			value = raw[i]
			a.Raw = append(a.Raw, value)
			a.Options = append(a.Options, arg, value)
		} else {
			a.Options = append(a.Options, arg)
		}

		switch name {
		case "--order":
			a.Order = value
			if seed, ok := orderSeed(value); ok {
				a.Seed = seed
			}
		case "--seed":
			a.Seed = value
		}
	}
	return a
}

// orderSeed extracts N from "rand:N" or "random:N", which rspec treats the
// same as --seed N.
func orderSeed(order string) (string, bool) {
	kind, seed, ok := strings.Cut(order, ":")
	if !ok || seed == "" || (kind != "rand" && kind != "random") {
		return "", false
	}
	return seed, true
}

// String renders the arguments the way they were given.
func (a Args) String() string {
	return strings.Join(a.Raw, " ")
}
