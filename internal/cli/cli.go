// Package cli implements the kcdb command-line tool.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kcdb-client/pkg/kcdb"
)

// ErrUsage is returned when the command line cannot be parsed.
var ErrUsage = errors.New("usage error")

// CLI dispatches kcdb subcommands and prints their results as indented JSON.
type CLI struct {
	client *kcdb.Client
	out    io.Writer
	errOut io.Writer
}

// New creates a CLI writing results to out and usage text to errOut.
func New(client *kcdb.Client, out, errOut io.Writer) *CLI {
	return &CLI{client: client, out: out, errOut: errOut}
}

// Run executes the subcommand named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "domains":
		return c.domains(ctx, rest)
	case "countries":
		return c.countries(ctx, rest)
	case "areas":
		return c.areas(ctx, rest)
	case "branches":
		return c.branches(ctx, rest)
	case "physics-codes":
		return c.physicsCodes(ctx, rest)
	case "search-physics":
		return c.searchPhysics(ctx, rest)
	case "search-chem-bio":
		return c.searchChemistryBiology(ctx, rest)
	case "search-radiation":
		return c.searchRadiation(ctx, rest)
	case "quick-search":
		return c.quickSearch(ctx, rest)
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.errOut, `KCDB command-line client

Usage:
  kcdb <command> [options]

Commands:
  domains                               List the KCDB domains
  countries [-filter RE]                List countries, optionally filtered
  areas DOMAIN                          List the metrology areas of PHYSICS, CHEM-BIO or RADIATION
  branches DOMAIN AREA                  List the branches of a metrology area label
  physics-codes AREA [-branch RE]       Walk a General Physics area down to its individual services
  search-physics -area EM [options]     Search General Physics CMCs
  search-chem-bio [options]             Search Chemistry and Biology CMCs
  search-radiation [options]            Search Ionizing Radiation CMCs
  quick-search [options]                Quick search across all domains

Run "kcdb <command> -h" for the options of a command.
`)
}

func (c *CLI) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *CLI) parse(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != positional {
		fs.Usage()
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrUsage, fs.Name(), positional, fs.NArg())
	}
	return fs.Args(), nil
}

func (c *CLI) domains(ctx context.Context, args []string) error {
	if _, err := c.parse(c.flagSet("domains"), args, 0); err != nil {
		return err
	}
	domains, err := c.client.Domains(ctx)
	if err != nil {
		return err
	}
	return c.print(domains)
}

func (c *CLI) countries(ctx context.Context, args []string) error {
	fs := c.flagSet("countries")
	pattern := fs.String("filter", "", "case-insensitive regular expression matched against name or code")
	if _, err := c.parse(fs, args, 0); err != nil {
		return err
	}

	countries, err := c.client.Countries(ctx)
	if err != nil {
		return err
	}
	if *pattern != "" {
		if countries, err = kcdb.Filter(countries, *pattern, kcdb.IgnoreCase); err != nil {
			return err
		}
	}
	return c.print(countries)
}

func (c *CLI) areas(ctx context.Context, args []string) error {
	positional, err := c.parse(c.flagSet("areas"), args, 1)
	if err != nil {
		return err
	}
	nav, err := c.client.Navigator(strings.ToUpper(positional[0]))
	if err != nil {
		return err
	}
	areas, err := nav.MetrologyAreas(ctx)
	if err != nil {
		return err
	}
	return c.print(areas)
}

func (c *CLI) branches(ctx context.Context, args []string) error {
	positional, err := c.parse(c.flagSet("branches"), args, 2)
	if err != nil {
		return err
	}
	nav, err := c.client.Navigator(strings.ToUpper(positional[0]))
	if err != nil {
		return err
	}
	area, err := c.area(ctx, nav, positional[1])
	if err != nil {
		return err
	}
	branches, err := nav.Branches(ctx, area)
	if err != nil {
		return err
	}
	return c.print(branches)
}

func (c *CLI) area(ctx context.Context, nav kcdb.Navigator, label string) (kcdb.MetrologyArea, error) {
	areas, err := nav.MetrologyAreas(ctx)
	if err != nil {
		return kcdb.MetrologyArea{}, err
	}
	return kcdb.FindLabel(areas, label)
}

// PhysicsCodeEntry is one line of the physics-codes listing.
type PhysicsCodeEntry struct {
	PhysicsCode       string `json:"physics_code"`
	Branch            string `json:"branch"`
	Service           string `json:"service"`
	SubService        string `json:"sub_service"`
	IndividualService string `json:"individual_service"`
}

func (c *CLI) physicsCodes(ctx context.Context, args []string) error {
	fs := c.flagSet("physics-codes")
	branchPattern := fs.String("branch", "", "regular expression selecting the branches to walk")
	positional, err := c.parse(fs, args, 1)
	if err != nil {
		return err
	}

	physics := c.client.GeneralPhysics()
	area, err := c.area(ctx, physics, positional[0])
	if err != nil {
		return err
	}
	branches, err := physics.Branches(ctx, area)
	if err != nil {
		return err
	}
	if *branchPattern != "" {
		if branches, err = kcdb.Filter(branches, *branchPattern); err != nil {
			return err
		}
	}

	entries := make([]PhysicsCodeEntry, 0)
	for _, branch := range branches {
		services, err := physics.Services(ctx, branch)
		if err != nil {
			return err
		}
		for _, service := range services {
			subs, err := physics.SubServices(ctx, service)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				individual, err := physics.IndividualServices(ctx, sub)
				if err != nil {
					return err
				}
				for _, is := range individual {
					entries = append(entries, PhysicsCodeEntry{
						PhysicsCode:       is.PhysicsCode,
						Branch:            branch.Label,
						Service:           service.Value,
						SubService:        sub.Value,
						IndividualService: is.Value,
					})
				}
			}
		}
	}
	return c.print(entries)
}

// listFlag collects a comma-separated flag that may also be repeated.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*l = append(*l, item)
		}
	}
	return nil
}

// searchFlags are the options shared by every search command.
type searchFlags struct {
	page      int
	pageSize  int
	showTable bool
	keywords  string
	countries listFlag
	dateFrom  string
	dateTo    string
}

func (f *searchFlags) register(fs *flag.FlagSet, domainSearch bool) {
	fs.IntVar(&f.page, "page", 0, "zero-based page number")
	fs.IntVar(&f.pageSize, "page-size", kcdb.DefaultPageSize, fmt.Sprintf("results per page, 1 to %d", kcdb.MaxPageSize))
	fs.BoolVar(&f.showTable, "show-table", false, "include uncertainty tables")
	fs.StringVar(&f.keywords, "keywords", "", "free-text keywords, may use OR")
	if domainSearch {
		fs.Var(&f.countries, "countries", "comma-separated ISO country codes")
		fs.StringVar(&f.dateFrom, "from", "", "earliest publication date, YYYY-MM-DD")
		fs.StringVar(&f.dateTo, "to", "", "latest publication date, YYYY-MM-DD")
	}
}

func (f *searchFlags) paging() kcdb.Paging {
	return kcdb.Paging{Page: f.page, PageSize: f.pageSize, ShowTable: f.showTable}
}

func (c *CLI) searchPhysics(ctx context.Context, args []string) error {
	fs := c.flagSet("search-physics")
	var common searchFlags
	common.register(fs, true)
	area := fs.String("area", "", "metrology area label (required)")
	branch := fs.String("branch", "", "branch label")
	physicsCode := fs.String("physics-code", "", "dotted physics code")
	if _, err := c.parse(fs, args, 0); err != nil {
		return err
	}

	q := kcdb.NewGeneralPhysicsQuery(kcdb.Label(*area))
	q.Paging = common.paging()
	q.Branch = kcdb.Label(*branch)
	q.PhysicsCode = kcdb.PhysicsCode(*physicsCode)
	q.Keywords = common.keywords
	q.Countries = kcdb.Countries(common.countries...)
	q.PublicDateFrom = common.dateFrom
	q.PublicDateTo = common.dateTo

	results, err := c.client.GeneralPhysics().Search(ctx, q)
	if err != nil {
		return err
	}
	return c.print(results)
}

func (c *CLI) searchChemistryBiology(ctx context.Context, args []string) error {
	fs := c.flagSet("search-chem-bio")
	var common searchFlags
	common.register(fs, true)
	analyte := fs.String("analyte", "", "analyte label")
	category := fs.String("category", "", "category label")
	if _, err := c.parse(fs, args, 0); err != nil {
		return err
	}

	q := kcdb.NewChemistryBiologyQuery()
	q.Paging = common.paging()
	q.Analyte = kcdb.Label(*analyte)
	q.Category = kcdb.Label(*category)
	q.Keywords = common.keywords
	q.Countries = kcdb.Countries(common.countries...)
	q.PublicDateFrom = common.dateFrom
	q.PublicDateTo = common.dateTo

	results, err := c.client.ChemistryBiology().Search(ctx, q)
	if err != nil {
		return err
	}
	return c.print(results)
}

func (c *CLI) searchRadiation(ctx context.Context, args []string) error {
	fs := c.flagSet("search-radiation")
	var common searchFlags
	common.register(fs, true)
	branch := fs.String("branch", "", "branch label: RAD, DOS or NEU")
	medium := fs.String("medium", "", "medium label")
	source := fs.String("source", "", "source label")
	quantity := fs.String("quantity", "", "quantity label")
	nuclide := fs.String("nuclide", "", "nuclide label")
	if _, err := c.parse(fs, args, 0); err != nil {
		return err
	}

	q := kcdb.NewIonizingRadiationQuery()
	q.Paging = common.paging()
	q.Branch = kcdb.Label(*branch)
	q.Medium = kcdb.Label(*medium)
	q.Source = kcdb.Label(*source)
	q.Quantity = kcdb.Label(*quantity)
	q.Nuclide = kcdb.Label(*nuclide)
	q.Keywords = common.keywords
	q.Countries = kcdb.Countries(common.countries...)
	q.PublicDateFrom = common.dateFrom
	q.PublicDateTo = common.dateTo

	results, err := c.client.IonizingRadiation().Search(ctx, q)
	if err != nil {
		return err
	}
	return c.print(results)
}

func (c *CLI) quickSearch(ctx context.Context, args []string) error {
	fs := c.flagSet("quick-search")
	var common searchFlags
	common.register(fs, false)
	var included, excluded listFlag
	fs.Var(&included, "include", "comma-separated filter codes to include")
	fs.Var(&excluded, "exclude", "comma-separated filter codes to exclude")
	if _, err := c.parse(fs, args, 0); err != nil {
		return err
	}

	q := kcdb.NewQuickSearchQuery()
	q.Paging = common.paging()
	q.Keywords = common.keywords
	q.IncludedFilters = included
	q.ExcludedFilters = excluded

	results, err := c.client.QuickSearch(ctx, q)
	if err != nil {
		return err
	}
	return c.print(results)
}
