package overrides

import (
	"encoding/json"
	"fmt"
	"os"
)

// ResolveTable maps host:port to the addr:port the dialer should use
// instead. It is the bulk-file form of the --resolve flag.
type ResolveTable map[string]string

type resolveRecord struct {
	Host string `json:"host"`
	Addr string `json:"addr"`
}

// ParseResolveTable loads a JSON array of {"host": "h:port", "addr": "ip:port"}
// records. Later records win when a host repeats.
func ParseResolveTable(filepath string) (ResolveTable, error) {
	records := make([]resolveRecord, 0)
	table := make(ResolveTable)
	f, err := os.Open(filepath)
	if err != nil {
		return table, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return table, fmt.Errorf("error parsing resolve table %s: %w", filepath, err)
	}
	for _, record := range records {
		table[record.Host] = record.Addr
	}
	return table, nil
}
