// Package cli is a terminal storefront: it keeps the shopper's selections and
// cart in a local state file and checks out through the gateway.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/metinatakli/pcbuilder/internal/cart"
	"github.com/metinatakli/pcbuilder/internal/catalog"
	"github.com/metinatakli/pcbuilder/internal/client"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/metinatakli/pcbuilder/internal/vcs"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: pcbuilder [flags] <command> [args]

Commands:
  catalog                        list every category and its options
  select <category> <option-id>  choose an option for a category
  clear-selections               forget every selection
  add                            add the complete configuration to the cart
  remove <item-id>               remove a cart item
  qty <item-id> <quantity>       change the quantity of a cart item
  clear-cart                     empty the cart
  show                           show selections, cart and totals
  checkout                       pay for the cart
  complete [session-id]          clear cart and selections after paying
  version                        print the version

Flags:
`

type Config struct {
	StateDir    string        `env:"PCBUILDER_STATE_DIR"`
	CatalogPath string        `env:"PCBUILDER_CATALOG"`
	GatewayURL  string        `env:"PCBUILDER_GATEWAY_URL" envDefault:"http://localhost:3000"`
	Timeout     time.Duration `env:"PCBUILDER_TIMEOUT" envDefault:"30s"`
	Verbose     bool          `env:"PCBUILDER_VERBOSE"`
}

type CLI struct {
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	catalog domain.Catalog
	repo    domain.CartStateRepository
	gateway client.SessionCreator
	now     func() time.Time
}

// Run parses args and executes one command, returning the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cfg Config

	err := env.Parse(&cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	fs := flag.NewFlagSet("pcbuilder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "Directory holding the saved cart state (default: user config dir)")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Catalog file (.yaml or .json), empty for the bundled catalog")
	fs.StringVar(&cfg.GatewayURL, "gateway", cfg.GatewayURL, "Checkout gateway base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Checkout request timeout")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log debug output")

	err = fs.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c, err := New(cfg, stdout, stderr, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	return c.Execute(ctx, fs.Args())
}

func New(cfg Config, stdout, stderr io.Writer, logger *slog.Logger) (*CLI, error) {
	stateDir := cfg.StateDir
	if stateDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate state directory: %w", err)
		}
		stateDir = filepath.Join(configDir, "pcbuilder")
	}

	productCatalog, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	return &CLI{
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		catalog: productCatalog,
		repo:    cart.NewFileRepository(stateDir),
		gateway: client.NewGateway(cfg.GatewayURL, cfg.Timeout),
		now:     time.Now,
	}, nil
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// Execute runs a single command. args[0] is the command name.
func (c *CLI) Execute(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(c.stderr, usage)
		return exitUsage
	}

	commands := map[string]func(context.Context, []string) error{
		"catalog":          c.listCatalog,
		"select":           c.selectOption,
		"clear-selections": c.clearSelections,
		"add":              c.addToCart,
		"remove":           c.removeFromCart,
		"qty":              c.updateQuantity,
		"clear-cart":       c.clearCart,
		"show":             c.show,
		"checkout":         c.checkout,
		"complete":         c.complete,
		"version":          c.version,
	}

	name, rest := args[0], args[1:]

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(c.stderr, "unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	err := cmd(ctx, rest)
	if err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(c.stderr, "%s\n", usageErr.msg)
			return exitUsage
		}

		c.logger.Debug("command failed", "command", name, "error", err)
		fmt.Fprintf(c.stderr, "%s\n", err)
		return exitError
	}

	return exitOK
}

func (c *CLI) storeOptions() []cart.Option {
	return []cart.Option{
		cart.WithClock(c.now),
		cart.WithCategoryOrder(c.catalog.Categories()),
	}
}

func (c *CLI) load(ctx context.Context) (*cart.Store, error) {
	return cart.Load(ctx, c.repo, domain.StateNamespace, c.storeOptions()...)
}

func (c *CLI) update(ctx context.Context, fn func(*cart.Store) error) (*cart.Store, error) {
	return cart.Update(ctx, c.repo, domain.StateNamespace, fn, c.storeOptions()...)
}

func (c *CLI) listCatalog(ctx context.Context, args []string) error {
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)

	for _, category := range c.catalog {
		fmt.Fprintf(tw, "%s\n", category.Category)
		for _, option := range category.Options {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", option.ID, option.Name, FormatINR(option.Price))
		}
	}

	return tw.Flush()
}

func (c *CLI) selectOption(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("usage: pcbuilder select <category> <option-id>")
	}

	category, optionID := args[0], args[1]

	option, err := c.catalog.Find(category, optionID)
	if err != nil {
		return fmt.Errorf("%w: %s %s", err, category, optionID)
	}

	store, err := c.update(ctx, func(s *cart.Store) error {
		s.UpdateSelection(category, option)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "%s: %s (%s)\n", category, option.Name, FormatINR(option.Price))
	fmt.Fprintf(c.stdout, "Total: %s\n", FormatINR(store.TotalPrice()))

	return nil
}

func (c *CLI) clearSelections(ctx context.Context, args []string) error {
	_, err := c.update(ctx, func(s *cart.Store) error {
		s.ClearSelections()
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, "Selections cleared.")

	return nil
}

func (c *CLI) addToCart(ctx context.Context, args []string) error {
	var added []domain.CartItem

	store, err := c.update(ctx, func(s *cart.Store) error {
		err := c.catalog.CheckComplete(s.Selections())
		if err != nil {
			return err
		}

		added = s.AddToCart()
		return nil
	})
	if err != nil {
		var incompleteErr *domain.IncompleteConfigurationError
		if errors.As(err, &incompleteErr) {
			return fmt.Errorf("select %d more component%s: %s",
				len(incompleteErr.Missing), plural(len(incompleteErr.Missing)), strings.Join(incompleteErr.Missing, ", "))
		}

		return err
	}

	fmt.Fprintf(c.stdout, "Configuration added to cart! (%d items)\n", len(added))
	fmt.Fprintf(c.stdout, "Cart total: %s\n", FormatINR(store.CartTotal()))

	return nil
}

func (c *CLI) removeFromCart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("usage: pcbuilder remove <item-id>")
	}

	store, err := c.update(ctx, func(s *cart.Store) error {
		s.RemoveFromCart(args[0])
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Cart total: %s\n", FormatINR(store.CartTotal()))

	return nil
}

func (c *CLI) updateQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("usage: pcbuilder qty <item-id> <quantity>")
	}

	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return usagef("quantity must be a whole number, got %q", args[1])
	}

	store, err := c.update(ctx, func(s *cart.Store) error {
		s.UpdateQuantity(args[0], quantity)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Cart total: %s\n", FormatINR(store.CartTotal()))

	return nil
}

func (c *CLI) clearCart(ctx context.Context, args []string) error {
	_, err := c.update(ctx, func(s *cart.Store) error {
		s.ClearCart()
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, "Cart cleared.")

	return nil
}

func (c *CLI) show(ctx context.Context, args []string) error {
	store, err := c.load(ctx)
	if err != nil {
		return err
	}

	selections := store.Selections()
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Configuration")
	for _, category := range c.catalog.Categories() {
		option, ok := selections[category]
		if !ok {
			fmt.Fprintf(tw, "  %s\t-\t\n", category)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", category, option.Name, FormatINR(option.Price))
	}
	fmt.Fprintf(tw, "  Total\t\t%s\n", FormatINR(store.TotalPrice()))

	if missing := c.catalog.Missing(selections); len(missing) > 0 {
		fmt.Fprintf(tw, "  Select %d more component%s\n", len(missing), plural(len(missing)))
	}

	fmt.Fprintln(tw)

	items := store.CartItems()
	if len(items) == 0 {
		fmt.Fprintln(tw, "Your cart is empty")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "Cart")
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\t%d x %s\t%s\n",
			item.ID, item.Name, item.Quantity, FormatINR(item.Price), FormatINR(item.Subtotal()))
	}
	fmt.Fprintf(tw, "  Cart total\t\t\t%s\n", FormatINR(store.CartTotal()))

	return tw.Flush()
}

// checkout leaves the cart untouched; it is cleared by "complete" once the
// payment went through.
func (c *CLI) checkout(ctx context.Context, args []string) error {
	store, err := c.load(ctx)
	if err != nil {
		return err
	}

	items := store.CartItems()
	if len(items) == 0 {
		return domain.ErrEmptyCart
	}

	checkout := client.NewCheckout(c.gateway, c.logger, client.WithObserver(func(s client.Status) {
		c.logger.Debug("checkout status", "status", s.String())
	}))

	fmt.Fprintf(c.stdout, "Processing %s...\n", FormatINR(store.CartTotal()))

	url, err := checkout.Submit(ctx, items)
	if err != nil {
		return fmt.Errorf("there was an error processing your checkout, please try again: %s", client.UserMessage(err))
	}

	fmt.Fprintf(c.stdout, "Continue to payment: %s\n", url)

	return nil
}

func (c *CLI) complete(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usagef("usage: pcbuilder complete [session-id]")
	}

	_, err := c.update(ctx, func(s *cart.Store) error {
		s.ClearCart()
		s.ClearSelections()
		return nil
	})
	if err != nil {
		return err
	}

	if len(args) == 1 {
		c.logger.Debug("checkout completed", "checkout_session_id", args[0])
	}

	fmt.Fprintln(c.stdout, "Payment successful! Your cart has been cleared.")

	return nil
}

func (c *CLI) version(ctx context.Context, args []string) error {
	fmt.Fprintf(c.stdout, "Version:\t%s\n", vcs.Version())
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
