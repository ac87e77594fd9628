package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pitabwire/util"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/config"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/fallback"
	"github.com/pitabwire/resources/source"
	"github.com/pitabwire/resources/validate"
	"github.com/pitabwire/resources/version"
)

const (
	minArgsCommand = 2
	minArgsLookup  = 2
	dirModuleName  = "resources"
)

func main() {
	if len(os.Args) < minArgsCommand {
		usage(os.Stdout)
		os.Exit(1)
	}

	ctx := newContext(context.Background())
	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
	case "version":
		fmt.Fprintln(os.Stdout, version.String())
	default:
		exitOnErr(ctx, run(ctx, os.Args[1:], os.Stdout))
	}
}

func newContext(ctx context.Context) context.Context {
	var opts []util.Option
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err == nil {
		if level, levelErr := util.ParseLevel(cfg.LoggingLevel()); levelErr == nil {
			opts = append(opts, util.WithLogLevel(level))
		}
		opts = append(opts, util.WithLogNoColor(!cfg.LoggingColored()))
	}
	opts = append(opts, util.WithLogOutput(os.Stderr))
	return util.ContextWithLogger(ctx, util.NewLogger(ctx, opts...))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "resources <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  fallback [--locale TAG] [--enum] <key>...")
	fmt.Fprintln(w, "  lookup (--manifest FILE | --dir DIR) [--module NAME] [--locale TAG] [--encoding ENC] [--all] <package> <basename> [key...]")
	fmt.Fprintln(w, "  explain [list | <code> | <diagnostic line>...]")
	fmt.Fprintln(w, "  check (--manifest FILE | --dir DIR) [--module NAME] [--encoding ENC] [--warn-only]")
	fmt.Fprintln(w, "  version")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "fallback":
		return cmdFallback(args, out)
	case "lookup":
		return cmdLookup(ctx, args, out)
	case "explain":
		return cmdExplain(args, out)
	case "check":
		return cmdCheck(ctx, args, out)
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
}

func cmdFallback(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fallback", flag.ContinueOnError)
	locale := fs.String("locale", "", "locale whose case rules apply")
	enum := fs.Bool("enum", false, "keys end in an enum constant")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("at least one key is required")
	}
	tag, err := config.ParseLocale(*locale)
	if err != nil {
		return err
	}

	deriver := fallback.New(tag)
	for _, key := range fs.Args() {
		fmt.Fprintln(out, deriver.Derive(key, *enum))
	}
	return nil
}

// moduleFlags selects the modules a command works on.
type moduleFlags struct {
	manifest string
	dir      string
	module   string
	encoding string
}

func (f *moduleFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.manifest, "manifest", "", "manifest file describing the modules")
	fs.StringVar(&f.dir, "dir", "", "directory holding the resources of a single module")
	fs.StringVar(&f.module, "module", "", "module of the manifest to use")
	fs.StringVar(&f.encoding, "encoding", "auto", "encoding of property files: utf-8, iso-8859-1 or auto")
}

func (f *moduleFlags) registry(ctx context.Context) (*source.Registry, error) {
	switch {
	case f.manifest != "" && f.dir != "":
		return nil, errors.New("--manifest and --dir are exclusive")
	case f.dir != "":
		info, err := os.Stat(f.dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", f.dir)
		}
		return source.NewRegistry(source.Dir(dirModuleName, "", f.dir)), nil
	case f.manifest != "":
		manifest, err := config.LoadManifest(f.manifest)
		if err != nil {
			return nil, err
		}
		return manifest.OpenRegistry(ctx)
	default:
		return nil, errors.New("one of --manifest and --dir is required")
	}
}

// modules returns the selected module, or all of them when none is named.
func (f *moduleFlags) modules(reg *source.Registry) ([]source.Module, error) {
	if f.module == "" {
		return reg.Modules(), nil
	}
	m, ok := reg.Lookup(f.module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", f.module)
	}
	return []source.Module{m}, nil
}

func (f *moduleFlags) loader() (*bundle.Loader, error) {
	enc, err := bundle.ParseEncoding(f.encoding)
	if err != nil {
		return nil, err
	}
	return bundle.NewLoader(bundle.WithEncoding(enc)), nil
}

func cmdLookup(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	var mf moduleFlags
	mf.register(fs)
	locale := fs.String("locale", "", "locale to resolve, the root bundle when empty")
	all := fs.Bool("all", false, "print every entry of the resolved bundle chain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < minArgsLookup {
		return errors.New("package and basename are required")
	}
	pkg, baseName, lookupKeys := fs.Arg(0), fs.Arg(1), fs.Args()[minArgsLookup:]
	if len(lookupKeys) == 0 && !*all {
		return errors.New("at least one key or --all is required")
	}

	tag, err := config.ParseLocale(*locale)
	if err != nil {
		return err
	}
	loader, err := mf.loader()
	if err != nil {
		return err
	}
	reg, err := mf.registry(ctx)
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(ctx, reg, "could not close resource modules")

	m := reg.Default()
	if mf.module != "" {
		var ok bool
		if m, ok = reg.Lookup(mf.module); !ok {
			return fmt.Errorf("unknown module %q", mf.module)
		}
	}

	b, err := loader.Load(ctx, m, pkg, baseName, tag)
	if err != nil {
		return err
	}
	util.Log(ctx).WithField("bundle", b.Name()).WithField("locale", b.Locale().String()).Debug("bundle resolved")

	if *all {
		entries := b.Entries()
		for _, key := range b.Keys() {
			fmt.Fprintf(out, "%s=%s\n", key, entries[key])
		}
	}

	var missing []string
	for _, key := range lookupKeys {
		value, ok := b.Get(key)
		if !ok {
			missing = append(missing, key)
			fmt.Fprintf(out, "%s (fallback: %s)\n", errorcode.StringResourceNotFound.Format(key), fallback.New(tag).Derive(key, false))
			continue
		}
		fmt.Fprintf(out, "%s=%s\n", key, value)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d of %d keys not found in %s", len(missing), len(lookupKeys), b.Name())
	}
	return nil
}

func cmdExplain(args []string, out io.Writer) error {
	if len(args) == 0 || (len(args) == 1 && args[0] == "list") {
		for _, code := range errorcode.All() {
			explainCode(out, code)
		}
		return nil
	}

	var errs []error
	for _, arg := range args {
		code, ok := parseCode(arg)
		if !ok {
			errs = append(errs, fmt.Errorf("no resource error code in %q", arg))
			continue
		}
		explainCode(out, code)
	}
	return errors.Join(errs...)
}

func parseCode(arg string) (errorcode.Code, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil {
		return errorcode.ByNumber(n)
	}
	return errorcode.Parse(arg)
}

func explainCode(out io.Writer, code errorcode.Code) {
	fmt.Fprintf(out, "%s %s: %s\n", fmt.Sprintf(errorcode.Prefix, code.Number()), code.Name(), code.Template())
}

func cmdCheck(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var mf moduleFlags
	mf.register(fs)
	warnOnly := fs.Bool("warn-only", false, "do not fail on errors")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loader, err := mf.loader()
	if err != nil {
		return err
	}
	reg, err := mf.registry(ctx)
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(ctx, reg, "could not close resource modules")

	modules, err := mf.modules(reg)
	if err != nil {
		return err
	}

	v := validate.New(validate.WithRegistry(reg), validate.WithBundleLoader(loader))
	var diags validate.Diagnostics
	for _, m := range modules {
		diags = append(diags, v.CheckBundles(ctx, m)...)
	}
	if _, err = diags.WriteTo(out); err != nil {
		return err
	}

	errCount := len(diags.Filter(validate.SeverityError))
	warnCount := len(diags.Filter(validate.SeverityWarning))
	fmt.Fprintf(out, "%d modules checked: %d errors, %d warnings\n", len(modules), errCount, warnCount)
	if errCount > 0 && !*warnOnly {
		return fmt.Errorf("%d errors", errCount)
	}
	return nil
}

func exitOnErr(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	util.Log(ctx).WithError(err).Error("resources: command failed")
	os.Exit(1)
}
