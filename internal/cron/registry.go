package cron

import (
	"fmt"
	"sort"

	"github.com/aatumaykin/crontabber/internal/jobspec"
)

// Registry maps job names and aliases to jobs. It is populated at startup
// and read-only afterwards.
type Registry struct {
	jobs    map[string]Job
	aliases map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs:    make(map[string]Job),
		aliases: make(map[string]string),
	}
}

// Register adds job under its name and any aliases, such as the dotted
// class path used by older job lists.
func (r *Registry) Register(job Job, aliases ...string) error {
	name := job.Name()
	if name == "" {
		return fmt.Errorf("job name cannot be empty")
	}
	if _, taken := r.resolve(name); taken {
		return fmt.Errorf("job %q already registered", name)
	}
	for _, dep := range job.DependsOn() {
		if dep == name {
			return fmt.Errorf("job %q cannot depend on itself", name)
		}
	}
	for _, alias := range aliases {
		if _, taken := r.resolve(alias); taken || alias == name {
			return fmt.Errorf("alias %q for job %q already registered", alias, name)
		}
	}

	r.jobs[name] = job
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

// Lookup finds a job by name or alias.
func (r *Registry) Lookup(ref string) (Job, bool) {
	name, ok := r.resolve(ref)
	if !ok {
		return nil, false
	}
	return r.jobs[name], true
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) resolve(ref string) (string, bool) {
	if _, ok := r.jobs[ref]; ok {
		return ref, true
	}
	name, ok := r.aliases[ref]
	return name, ok
}

// Configure binds parsed job list entries to registered jobs. Each
// descriptor's ID becomes the job's canonical name and its dependencies
// are attached. Entries naming unknown jobs fail with ErrUnknownJob.
func (r *Registry) Configure(descs []jobspec.Descriptor) ([]jobspec.Descriptor, error) {
	out := make([]jobspec.Descriptor, 0, len(descs))
	seen := make(map[string]string, len(descs))

	for _, desc := range descs {
		job, ok := r.Lookup(desc.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownJob, desc.ID)
		}
		name := job.Name()
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("job %q listed twice (as %q and %q)", name, prev, desc.ID)
		}
		seen[name] = desc.ID

		desc.ID = name
		desc.DependsOn = append([]string(nil), job.DependsOn()...)
		out = append(out, desc)
	}

	if err := checkCycles(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkCycles rejects dependency loops among configured jobs.
func checkCycles(descs []jobspec.Descriptor) error {
	deps := make(map[string][]string, len(descs))
	for _, d := range descs {
		deps[d.ID] = d.DependsOn
	}

	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(descs))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch marks[name] {
		case visiting:
			return fmt.Errorf("%w: %v", ErrDependencyCycle, append(path, name))
		case done:
			return nil
		}
		marks[name] = visiting
		for _, dep := range deps[name] {
			if _, configured := deps[dep]; !configured {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		marks[name] = done
		return nil
	}

	for _, d := range descs {
		if err := visit(d.ID, nil); err != nil {
			return err
		}
	}
	return nil
}
