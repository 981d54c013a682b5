package config

const massProton = 1.007276466879

// Cyclosiloxanes, H6nC2nOnSin, with their uncharged mass. They are
// present in most samples at all retention times.
var cyclosiloxanes = []struct {
	name string
	mass float64
}{
	{`cyclosiloxane6`, 444.1127481},
	{`cyclosiloxane7`, 518.1315394},
	{`cyclosiloxane8`, 592.1503308},
	{`cyclosiloxane9`, 666.1691221},
	{`cyclosiloxane10`, 740.1879134},
	{`cyclosiloxane11`, 814.2067048},
	{`cyclosiloxane12`, 888.2254961},
}

// BuiltinStandards returns the built-in calibrants as singly charged
// ions that elute at any retention time
func BuiltinStandards() []StandardEntry {
	entries := make([]StandardEntry, len(cyclosiloxanes))
	for i, c := range cyclosiloxanes {
		entries[i] = StandardEntry{Name: c.name, MZ: c.mass + massProton, RT: -1}
	}
	return entries
}
