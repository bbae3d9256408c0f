package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ted_dashboard/internal/app"
	"ted_dashboard/internal/domain"
)

const browseHelp = `Commands:
  next | prev          move one page
  page N               jump to page N
  country XXX          filter by buyer country (3-letter code)
  product NAME         filter by product; again to clear
  search TEXT          free-text search; without TEXT clears it
  winner               toggle awarded-only
  clear                drop every filter
  refresh              fetch the current page again
  help | quit`

var errUnknownCommand = errors.New("unknown command")

// command is one parsed input line.
type command struct {
	action  app.Action
	refresh bool
	help    bool
	quit    bool
}

// parseCommand maps a line to an action. Live search selects several
// countries; the stored list filters by one at a time.
func parseCommand(line string, live bool) (command, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "next", "n":
		return command{action: app.NextPage{}}, nil
	case "prev", "p":
		return command{action: app.PrevPage{}}, nil
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("page needs a number >= 1")
		}
		return command{action: app.SetPage{N: n}}, nil
	case "country":
		if len(arg) != 3 {
			return command{}, fmt.Errorf("country needs a 3-letter code")
		}
		if live {
			return command{action: app.ToggleCountry{Code: arg}}, nil
		}
		return command{action: app.SelectCountry{Code: arg}}, nil
	case "product":
		if arg == "" {
			return command{}, fmt.Errorf("product needs a name")
		}
		return command{action: app.ToggleProduct{Name: arg}}, nil
	case "search":
		return command{action: app.SetSearch{Text: arg}}, nil
	case "winner":
		return command{action: app.ToggleWinnerOnly{}}, nil
	case "clear":
		return command{action: app.ClearFilters{}}, nil
	case "refresh", "r":
		return command{refresh: true}, nil
	case "help", "?":
		return command{help: true}, nil
	case "quit", "exit", "q":
		return command{quit: true}, nil
	case "":
		return command{}, nil
	}
	return command{}, fmt.Errorf("%w %q, try help", errUnknownCommand, verb)
}

func newBrowseCmd(e *env) *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page and filter notices interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, size := domain.SourceStored, e.cfg.TablePageSize
			if live {
				src, size = domain.SourceLive, e.cfg.CardPageSize
			}
			return browse(cmd, e, app.NewListState(src, size), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Browse the live upstream search")
	return cmd
}

func browse(cmd *cobra.Command, e *env, initial app.ListState, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	var mu sync.Mutex
	c := app.NewController(initial, e.q.List, func(s app.ListState) {
		mu.Lock()
		defer mu.Unlock()
		if err := printState(out, s, e.cfg.DefaultLang, e.cfg.DefaultCurrency); err != nil {
			cmd.PrintErrln(err)
		}
	})

	c.Refresh(ctx)
	c.Wait()

	live := initial.Source == domain.SourceLive
	sc := bufio.NewScanner(in)
	for {
		mu.Lock()
		fmt.Fprint(out, "> ")
		mu.Unlock()
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		cm, err := parseCommand(sc.Text(), live)
		switch {
		case err != nil:
			fmt.Fprintln(out, err)
		case cm.quit:
			return nil
		case cm.help:
			fmt.Fprintln(out, browseHelp)
		case cm.refresh:
			c.Refresh(ctx)
		case cm.action != nil:
			c.Dispatch(ctx, cm.action)
		}
		c.Wait()
	}
}
