package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
)

var registryHeader = []string{
	"type_name",
	"description",
	"requires_address",
	"is_rejected",
	"count_in_summary",
	"report_filename",
	"database_report",
	"csv_report",
}

// TypeRegistry holds accounting policies per script type. Types seen for the
// first time are registered with model.DefaultTypePolicy.
type TypeRegistry struct {
	policies map[string]model.TypePolicy
	added    []string
}

// NewTypeRegistry builds a registry from policies. Later duplicates win.
func NewTypeRegistry(policies ...model.TypePolicy) *TypeRegistry {
	r := &TypeRegistry{policies: make(map[string]model.TypePolicy, len(policies))}
	for _, p := range policies {
		r.policies[p.Name] = p
	}
	return r
}

// DefaultTypeRegistry returns the policies for the script types reported by bitcoind.
func DefaultTypeRegistry() *TypeRegistry {
	withAddress := func(name, description string) model.TypePolicy {
		return model.TypePolicy{
			Name:            name,
			Description:     description,
			RequiresAddress: true,
			CountInSummary:  true,
			ReportFilename:  name + "_addresses.csv",
			DatabaseReport:  true,
			CSVReport:       true,
		}
	}
	withoutAddress := func(name, description string) model.TypePolicy {
		return model.TypePolicy{
			Name:           name,
			Description:    description,
			CountInSummary: true,
		}
	}

	coinbase := withAddress(model.CoinbaseType, "Block reward")
	coinbase.IsRejected = true
	coinbase.CSVReport = false

	return NewTypeRegistry(
		withAddress("pubkey", "Pay to public key"),
		withAddress("pubkeyhash", "Pay to public key hash"),
		withAddress("scripthash", "Pay to script hash"),
		withAddress("multisig", "Bare multisig"),
		withoutAddress("nulldata", "Data carrier"),
		withAddress("witness_v0_keyhash", "Pay to witness public key hash"),
		withAddress("witness_v0_scripthash", "Pay to witness script hash"),
		withAddress("witness_v1_taproot", "Pay to taproot"),
		withoutAddress("witness_unknown", "Unknown witness version"),
		withoutAddress("nonstandard", "Non-standard script"),
		coinbase,
	)
}

// Resolve returns the policy for name, registering the default policy when
// the type is unknown. The bool reports a new registration.
func (r *TypeRegistry) Resolve(name string) (model.TypePolicy, bool) {
	if p, ok := r.policies[name]; ok {
		return p, false
	}
	p := model.DefaultTypePolicy(name)
	r.policies[name] = p
	r.added = append(r.added, name)
	return p, true
}

// Policy returns the registered policy without registering.
func (r *TypeRegistry) Policy(name string) (model.TypePolicy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Types returns every policy ordered by name.
func (r *TypeRegistry) Types() []model.TypePolicy {
	out := make([]model.TypePolicy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Added returns the types registered at runtime, in discovery order.
func (r *TypeRegistry) Added() []string {
	return append([]string(nil), r.added...)
}

// LoadTypeRegistry reads the registry from path. A missing file is created
// with the default registry.
func LoadTypeRegistry(path string) (*TypeRegistry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		r := DefaultTypeRegistry()
		if err := r.Save(path); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open type registry: %w", err)
	}
	defer f.Close()

	return ReadTypeRegistry(f)
}

// ReadTypeRegistry parses a registry CSV. Columns are matched by header name.
func ReadTypeRegistry(src io.Reader) (*TypeRegistry, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read type registry header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx["type_name"]; !ok {
		return nil, errors.New("type registry: missing type_name column")
	}

	r := NewTypeRegistry()
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read type registry row: %w", err)
		}
		p, err := parsePolicy(row, idx)
		if err != nil {
			return nil, err
		}
		r.policies[p.Name] = p
	}
	return r, nil
}

func parsePolicy(row []string, idx map[string]int) (model.TypePolicy, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	flag := func(name string, def bool) (bool, error) {
		v := field(name)
		if v == "" {
			return def, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("type registry %s: parse %s %q: %w", field("type_name"), name, v, err)
		}
		return b, nil
	}

	p := model.DefaultTypePolicy(field("type_name"))
	if p.Name == "" {
		return model.TypePolicy{}, errors.New("type registry: empty type_name")
	}
	if d := field("description"); d != "" {
		p.Description = d
	}
	p.ReportFilename = field("report_filename")

	var err error
	if p.RequiresAddress, err = flag("requires_address", p.RequiresAddress); err != nil {
		return model.TypePolicy{}, err
	}
	if p.IsRejected, err = flag("is_rejected", p.IsRejected); err != nil {
		return model.TypePolicy{}, err
	}
	if p.CountInSummary, err = flag("count_in_summary", p.CountInSummary); err != nil {
		return model.TypePolicy{}, err
	}
	if p.DatabaseReport, err = flag("database_report", false); err != nil {
		return model.TypePolicy{}, err
	}
	if p.CSVReport, err = flag("csv_report", false); err != nil {
		return model.TypePolicy{}, err
	}
	return p, nil
}

// WriteCSV writes the registry ordered by type name.
func (r *TypeRegistry) WriteCSV(dst io.Writer) error {
	w := csv.NewWriter(dst)
	if err := w.Write(registryHeader); err != nil {
		return fmt.Errorf("write type registry header: %w", err)
	}
	for _, p := range r.Types() {
		if err := w.Write([]string{
			p.Name,
			p.Description,
			strconv.FormatBool(p.RequiresAddress),
			strconv.FormatBool(p.IsRejected),
			strconv.FormatBool(p.CountInSummary),
			p.ReportFilename,
			strconv.FormatBool(p.DatabaseReport),
			strconv.FormatBool(p.CSVReport),
		}); err != nil {
			return fmt.Errorf("write type registry row %s: %w", p.Name, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Save writes the registry to path, replacing the file.
func (r *TypeRegistry) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create type registry: %w", err)
	}
	if err := r.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close type registry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace type registry: %w", err)
	}
	return nil
}
