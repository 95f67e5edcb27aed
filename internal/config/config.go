// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kongjun0320/zf-webpack/internal/cueutil"
	"github.com/kongjun0320/zf-webpack/internal/fsys"
	"github.com/kongjun0320/zf-webpack/internal/issue"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "zfpack"
	// EnvPrefix prefixes environment overrides, as in ZFPACK_OUTPUT_PATH.
	EnvPrefix = "ZFPACK"
	// CUEFileName is the CUE config file looked up in the project directory.
	CUEFileName = AppName + ".cue"
	// TOMLFileName is the TOML config file, used when no CUE file exists.
	TOMLFileName = AppName + ".toml"
)

//go:embed config_schema.cue
var configSchema []byte

// Schema returns the embedded CUE schema source.
func Schema() []byte {
	return configSchema
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fs := opts.Fs
	if fs == nil {
		fs = fsys.OS()
	}
	dir, err := projectDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	path, err := findConfigFile(fs, dir, opts.ConfigFilePath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'zfpack config show' to see the default configuration").
			WithIssue(issue.ConfigNotFoundId).
			Wrap(err).
			BuildError()
	}

	values := map[string]any{}
	if path != "" {
		values, err = readConfigFile(fs, path)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check the file syntax").
				WithSuggestion("Verify the values match the schema printed by 'zfpack config schema'").
				WithIssue(issue.ConfigInvalidId).
				Wrap(err).
				BuildError()
		}
	}

	// Entry and transformer names are user-chosen map keys. Viper folds
	// keys to lower case and splits them on dots, so both bypass it.
	entryValue := values["entry"]
	transformerValue := values["transformers"]
	delete(values, "entry")
	delete(values, "transformers")

	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if env := v.GetString("entry"); env != "" {
		entryValue = env
	}
	if cfg.Entry, err = normalizeEntry(entryValue); err != nil {
		return nil, err
	}
	if cfg.Transformers, err = normalizeTransformers(transformerValue); err != nil {
		return nil, err
	}

	base := dir
	if path != "" {
		base = filepath.Dir(path)
	}
	switch {
	case cfg.Context == "":
		cfg.Context = base
	case !filepath.IsAbs(cfg.Context):
		cfg.Context = filepath.Join(base, cfg.Context)
	}
	cfg.Context = filepath.Clean(cfg.Context)

	if len(cfg.Module.Rules) == 0 {
		cfg.Module.Rules = DefaultRules()
	}
	if cfg.Plugins == nil {
		cfg.Plugins = []string{}
	}
	if cfg.Watch.Ignore == nil {
		cfg.Watch.Ignore = []string{}
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		resource := path
		if resource == "" {
			resource = "defaults"
		}
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resource).
			WithSuggestion("Fix the fields listed above").
			WithSuggestion("Environment variables prefixed with " + EnvPrefix + "_ also set fields").
			WithIssue(issue.ConfigInvalidId).
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("context", d.Context)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.filename", d.Output.Filename)
	v.SetDefault("output.minify", d.Output.Minify)
	v.SetDefault("resolve.extensions", d.Resolve.Extensions)
	v.SetDefault("plugins", d.Plugins)
	v.SetDefault("stats.file", d.Stats.File)
	v.SetDefault("hooks.policy", string(d.Hooks.Policy))
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", string(d.Log.Format))
}

func projectDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory %s: %w", dir, err)
	}
	return abs, nil
}

// findConfigFile returns the explicit file when one is given, otherwise
// the first of zfpack.cue and zfpack.toml in dir. An empty result means no
// file exists and defaults apply.
func findConfigFile(fs afero.Fs, dir, explicit string) (string, error) {
	if explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(dir, explicit)
		}
		if !fsys.IsFile(fs, explicit) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}
	for _, name := range []string{CUEFileName, TOMLFileName} {
		candidate := filepath.Join(dir, name)
		if fsys.IsFile(fs, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// readConfigFile decodes a CUE or TOML file and validates it against the
// schema.
func readConfigFile(fs afero.Fs, path string) (map[string]any, error) {
	text, err := fsys.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	data := []byte(text)
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	schema, err := cueutil.CompileSchema(configSchema, "#Config")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return schema.DecodeValue(doc, cueutil.WithFilename(path))
	default:
		return schema.DecodeSource(data, cueutil.WithFilename(path))
	}
}

func normalizeEntry(raw any) (map[string]string, error) {
	switch t := raw.(type) {
	case nil:
		return DefaultConfig().Entry, nil
	case string:
		return map[string]string{DefaultEntryName: t}, nil
	case map[string]string:
		return t, nil
	case map[string]any:
		out := make(map[string]string, len(t))
		for name, value := range t {
			s, ok := value.(string)
			if !ok {
				return nil, &InvalidConfigError{FieldErrors: []error{
					&FieldError{Field: "entry." + name, Value: fmt.Sprint(value), Reason: "must be a string"},
				}}
			}
			out[name] = s
		}
		return out, nil
	default:
		return nil, &InvalidConfigError{FieldErrors: []error{
			&FieldError{Field: "entry", Value: fmt.Sprint(raw), Reason: "must be a string or a map of names to paths"},
		}}
	}
}

func normalizeTransformers(raw any) (map[string]TransformerConfig, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]TransformerConfig, len(m))
	for name, value := range m {
		fields, _ := value.(map[string]any)
		command, ok := fields["command"].(string)
		if !ok {
			return nil, &InvalidConfigError{FieldErrors: []error{
				&FieldError{Field: "transformers." + name + ".command", Value: fmt.Sprint(fields["command"]), Reason: "must be a string"},
			}}
		}
		out[name] = TransformerConfig{Command: command}
	}
	return out, nil
}

// Dump renders cfg as a CUE document that loads back to the same values.
func Dump(cfg *Config) ([]byte, error) {
	out, err := cueutil.Format(cfg)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	header := "// " + AppName + " configuration\n\n"
	return append([]byte(header), out...), nil
}
