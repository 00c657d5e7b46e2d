package source

import (
	"context"

	"gopkg.in/ini.v1"

	"taskplan/internal/registry"
)

// INI reads task sections from an INI file.
//
// Keys are case-insensitive; values are kept verbatim, quotes included. Keys
// in the DEFAULT section are inherited by every task section that does not
// set them, after the section's own keys.
type INI struct {
	Path string
}

func (s INI) Name() string { return "ini:" + s.Path }

func (s INI) Load(ctx context.Context, reg *registry.Registry) (Stats, error) {
	st := Stats{Source: s.Name()}
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
		PreserveSurroundedQuote:    true,
	}, s.Path)
	if err != nil {
		return st, &LoadError{Source: "ini", Path: s.Path, Err: err}
	}

	def := f.Section(ini.DefaultSection)
	for _, sec := range f.Sections() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		name := sec.Name()
		if name == ini.DefaultSection {
			continue
		}
		key, err := registry.ParseSectionName(name)
		if err != nil {
			st.skip(s.Path+":["+name+"]", err.Error())
			continue
		}
		sched, meta := sectionValues(sec, def)
		st.put(reg, registry.Record{
			Key:      key,
			Schedule: sched,
			Metadata: meta,
			Origin:   s.Path + ":[" + name + "]",
		})
	}
	return st, nil
}

func sectionValues(sec, def *ini.Section) (string, registry.Metadata) {
	var (
		sched string
		meta  registry.Metadata
		seen  = map[string]bool{}
	)
	take := func(k *ini.Key) {
		name := k.Name()
		if seen[name] {
			return
		}
		seen[name] = true
		if name == registry.ScheduleKey {
			sched = k.String()
			return
		}
		meta.Set(name, k.String())
	}
	for _, k := range sec.Keys() {
		take(k)
	}
	if def != nil {
		for _, k := range def.Keys() {
			take(k)
		}
	}
	return sched, meta
}
