package schedule

// Names maps subject codes to display labels.
type Names map[string]string

// DefaultNames returns the built-in subject labels.
func DefaultNames() Names {
	return Names{
		"MA":  "Mathematik",
		"D":   "Deutsch",
		"E":   "Englisch",
		"F":   "Französisch",
		"NT":  "Natur & Technik",
		"Gg":  "Geografie",
		"G":   "Geschichte",
		"BG":  "Gestalten",
		"Mu":  "Musik",
		"BS":  "Sport",
		"MI":  "Informatik",
		"WAH": "WAH",
		"RKE": "RKE",
	}
}

// Label returns the display name for code, falling back to the code itself.
func (n Names) Label(code string) string {
	if name, ok := n[code]; ok && name != "" {
		return name
	}
	return code
}

// Merge returns a copy of n overlaid with extra.
func (n Names) Merge(extra map[string]string) Names {
	out := make(Names, len(n)+len(extra))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
