package folders

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const (
	defaultSecretKey      = "fallback-secret-key"
	defaultBaseDirectory  = "/app/shared"
	defaultFolderPrefixes = "input,output"
	defaultURLPrefix      = "/folders"
	defaultBind           = "0.0.0.0:5000"
	defaultShareTTL       = "24h"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	BaseDirectory  string
	FolderPrefixes []string
	URLPrefix      string
	SecretKey      string

	Bind          string
	MaxUploadSize int64
	ShareTTL      time.Duration
	Debug         bool

	// PublicURL is the scheme and host share links are built on. When empty
	// the request's Host header is used.
	PublicURL     string
	SecureCookies bool
}

// Unrestricted reports whether the prefix list places no limit on folder names.
func (c *Config) Unrestricted() bool {
	return len(c.FolderPrefixes) == 0 || (len(c.FolderPrefixes) == 1 && c.FolderPrefixes[0] == "")
}

// AllowsFolder applies the prefix rule to a folder name.
func (c *Config) AllowsFolder(name string) bool {
	if c.Unrestricted() {
		return true
	}
	for _, prefix := range c.FolderPrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// fileConfig mirrors Config in the optional HCL file. Absent attributes keep
// whatever value the struct held before decoding.
type fileConfig struct {
	SecretKey      string   `hcl:"secret_key,optional"`
	BaseDirectory  string   `hcl:"base_directory,optional"`
	FolderPrefixes []string `hcl:"folder_prefixes,optional"`
	URLPrefix      string   `hcl:"url_prefix,optional"`
	Bind           string   `hcl:"bind,optional"`
	MaxUploadSize  string   `hcl:"max_upload_size,optional"`
	ShareTTL       string   `hcl:"share_ttl,optional"`
	Debug          bool     `hcl:"debug,optional"`
	PublicURL      string   `hcl:"public_url,optional"`
	SecureCookies  bool     `hcl:"secure_cookies,optional"`
}

func newDefaultFileConfig() fileConfig {
	return fileConfig{
		SecretKey:      defaultSecretKey,
		BaseDirectory:  defaultBaseDirectory,
		FolderPrefixes: strings.Split(defaultFolderPrefixes, ","),
		URLPrefix:      defaultURLPrefix,
		Bind:           defaultBind,
		MaxUploadSize:  "0",
		ShareTTL:       defaultShareTTL,
	}
}

var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

// LoadConfig builds the configuration from defaults, then the HCL file at path
// (skipped when path is empty), then the process environment.
func LoadConfig(path string) (*Config, error) {
	raw := newDefaultFileConfig()

	if path != "" {
		err := hclsimple.DecodeFile(path, newHCLEvalContext(), &raw)
		if err != nil {
			return nil, fmt.Errorf("decode config file %q: %w", path, err)
		}
	}

	err := raw.applyEnv()
	if err != nil {
		return nil, err
	}

	return raw.build()
}

func (raw *fileConfig) applyEnv() error {
	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		raw.SecretKey = v
	}
	if v, ok := os.LookupEnv("BASE_DIRECTORY"); ok {
		raw.BaseDirectory = v
	}
	if v, ok := os.LookupEnv("FOLDER_PREFIXES"); ok {
		raw.FolderPrefixes = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("URL_PREFIX"); ok {
		raw.URLPrefix = v
	}
	if v, ok := os.LookupEnv("BIND"); ok {
		raw.Bind = v
	}
	if v, ok := os.LookupEnv("MAX_UPLOAD_SIZE"); ok {
		raw.MaxUploadSize = v
	}
	if v, ok := os.LookupEnv("SHARE_TTL"); ok {
		raw.ShareTTL = v
	}
	if v, ok := os.LookupEnv("PUBLIC_URL"); ok {
		raw.PublicURL = v
	}
	if v, ok := os.LookupEnv("DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse DEBUG %q: %w", v, err)
		}
		raw.Debug = debug
	}
	if v, ok := os.LookupEnv("SECURE_COOKIES"); ok {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SECURE_COOKIES %q: %w", v, err)
		}
		raw.SecureCookies = secure
	}
	return nil
}

func (raw *fileConfig) build() (*Config, error) {
	var maxUploadSize uint64
	if s := strings.TrimSpace(raw.MaxUploadSize); s != "" && s != "0" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			return nil, fmt.Errorf("parse max upload size %q: %w", raw.MaxUploadSize, err)
		}
		maxUploadSize = size
	}

	shareTTL, err := time.ParseDuration(raw.ShareTTL)
	if err != nil {
		return nil, fmt.Errorf("parse share ttl %q: %w", raw.ShareTTL, err)
	}
	if shareTTL <= 0 {
		return nil, fmt.Errorf("share ttl must be positive, got %s", shareTTL)
	}

	if raw.BaseDirectory == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	publicURL := strings.TrimRight(strings.TrimSpace(raw.PublicURL), "/")
	if publicURL != "" {
		u, err := url.Parse(publicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("public url %q must be an absolute http(s) url", raw.PublicURL)
		}
	}

	return &Config{
		BaseDirectory:  raw.BaseDirectory,
		FolderPrefixes: raw.FolderPrefixes,
		URLPrefix:      normalizeURLPrefix(raw.URLPrefix),
		SecretKey:      raw.SecretKey,
		Bind:           raw.Bind,
		MaxUploadSize:  int64(maxUploadSize),
		ShareTTL:       shareTTL,
		Debug:          raw.Debug,
		PublicURL:      publicURL,
		SecureCookies:  raw.SecureCookies,
	}, nil
}

// normalizeURLPrefix returns "" for the root mount, otherwise a path with a
// leading slash and no trailing slash.
func normalizeURLPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
