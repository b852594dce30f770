package config

import "encoding/json"

// ChangedSections reports which top-level sections differ between two
// configs. It is used for reload logging only, so values never leak into
// logs; section names are enough.
func ChangedSections(oldCfg, newCfg *Config) []string {
	if oldCfg == nil || newCfg == nil {
		return nil
	}
	var out []string
	sections := []struct {
		name     string
		old, new any
	}{
		{"logging", oldCfg.Logging, newCfg.Logging},
		{"server", oldCfg.Server, newCfg.Server},
		{"planner", oldCfg.Planner, newCfg.Planner},
		{"storage", oldCfg.Storage, newCfg.Storage},
		{"janitor", oldCfg.Janitor, newCfg.Janitor},
	}
	for _, s := range sections {
		if !sameJSON(s.old, s.new) {
			out = append(out, s.name)
		}
	}
	return out
}

func sameJSON(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
