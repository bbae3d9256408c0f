package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
	"ted_dashboard/internal/shared"
)

type listFlags struct {
	live       bool
	page       int
	size       int
	countries  []string
	search     string
	product    string
	winnerOnly bool
}

func newListCmd(e *env) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of notices",
		Example: "  tenders list --country POL --country DEU --search insulin\n" +
			"  tenders list --live --winner-only --page 2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.page < 1 {
				return fmt.Errorf("invalid flags: page must be 1 or greater")
			}
			s := f.state(e.cfg)
			q := s.Query()
			if err := q.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			page, err := e.q.List(cmd.Context(), q)
			if err != nil {
				s = app.Reduce(s, app.FetchFailed{Seq: s.LatestSeq, Message: app.ErrorMessage(err)})
				return fmt.Errorf("%s: %w", s.Err, err)
			}
			s = app.Reduce(s, app.FetchSucceeded{Seq: s.LatestSeq, Page: page})
			return printState(cmd.OutOrStdout(), s, e.cfg.DefaultLang, e.cfg.DefaultCurrency)
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.live, "live", false, "Search the live upstream portal instead of stored notices")
	fl.IntVar(&f.page, "page", 1, "Page number")
	fl.IntVar(&f.size, "size", 0, "Page size (default from CARD_PAGE_SIZE or TABLE_PAGE_SIZE)")
	fl.StringSliceVar(&f.countries, "country", nil, "Buyer country code, repeatable (e.g. POL)")
	fl.StringVar(&f.search, "search", "", "Free-text search")
	fl.StringVar(&f.product, "product", "", "Product name; replaces --search")
	fl.BoolVar(&f.winnerOnly, "winner-only", false, "Only notices with an awarded winner")
	return cmd
}

// state builds the list state the flags describe, through the same actions
// the interactive browser dispatches.
func (f listFlags) state(cfg shared.Config) app.ListState {
	src, size := domain.SourceStored, cfg.TablePageSize
	if f.live {
		src, size = domain.SourceLive, cfg.CardPageSize
	}
	if f.size != 0 {
		size = f.size
	}
	s := app.NewListState(src, size)
	s.Cursor.PageSize = size

	var actions []app.Action
	for _, c := range f.countries {
		actions = append(actions, app.ToggleCountry{Code: c})
	}
	if f.search != "" {
		actions = append(actions, app.SetSearch{Text: f.search})
	}
	if f.product != "" {
		actions = append(actions, app.ToggleProduct{Name: f.product})
	}
	if f.winnerOnly {
		actions = append(actions, app.ToggleWinnerOnly{})
	}
	// page last: every filter action resets it
	actions = append(actions, app.SetPage{N: f.page}, app.FetchIssued{Seq: 1})
	return app.ReduceAll(s, actions...)
}
