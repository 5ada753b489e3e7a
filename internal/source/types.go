package source

// Format is an importable file format.
type Format string

// Supported formats.
const (
	FormatYAML  Format = "yaml"
	FormatJSONL Format = "jsonl"
)

// RawCustomer is a customer as written in import files.
type RawCustomer struct {
	ID           string `yaml:"id" json:"id"`
	RegisteredAt string `yaml:"registered_at" json:"registered_at"`
	Status       string `yaml:"status" json:"status"`
	ChurnedAt    string `yaml:"churned_at,omitempty" json:"churned_at,omitempty"`
	PlanType     string `yaml:"plan_type" json:"plan_type"`
}

// RawChannel is a channel line inside an actual or daily entry.
type RawChannel struct {
	Name         string  `yaml:"name" json:"name"`
	Acquisitions int     `yaml:"acquisitions" json:"acquisitions"`
	CPA          float64 `yaml:"cpa,omitempty" json:"cpa,omitempty"`
	Cost         float64 `yaml:"cost" json:"cost"`
}

// RawActual is a month of actuals as written in import files.
type RawActual struct {
	Month           string       `yaml:"month" json:"month"`
	NewAcquisitions int          `yaml:"new_acquisitions" json:"new_acquisitions"`
	MRR             float64      `yaml:"mrr" json:"mrr"`
	ChurnCount      int          `yaml:"churn_count" json:"churn_count"`
	Expenses        float64      `yaml:"expenses" json:"expenses"`
	TotalCustomers  int          `yaml:"total_customers" json:"total_customers"`
	Channels        []RawChannel `yaml:"channels,omitempty" json:"channels,omitempty"`
}

// RawDaily is a daily report as written in import files.
type RawDaily struct {
	ID              string       `yaml:"id,omitempty" json:"id,omitempty"`
	Date            string       `yaml:"date" json:"date"`
	NewAcquisitions int          `yaml:"new_acquisitions" json:"new_acquisitions"`
	Revenue         float64      `yaml:"revenue" json:"revenue"`
	Expenses        float64      `yaml:"expenses" json:"expenses"`
	Channels        []RawChannel `yaml:"channels,omitempty" json:"channels,omitempty"`
}

// RawTarget is an explicit target as written in import files.
type RawTarget struct {
	Period string  `yaml:"period" json:"period"`
	Metric string  `yaml:"metric" json:"metric"`
	Value  float64 `yaml:"value" json:"value"`
	Unit   string  `yaml:"unit" json:"unit"`
}

// RawDataset is the top-level layout of a YAML import file.
type RawDataset struct {
	Customers []RawCustomer `yaml:"customers"`
	Actuals   []RawActual   `yaml:"actuals"`
	Daily     []RawDaily    `yaml:"daily"`
	Targets   []RawTarget   `yaml:"targets"`
}

// DiscoveredFile is an importable file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}
