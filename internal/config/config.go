// Package config loads the daemon's configuration: listen address, the
// upstream table, default upstream selection, sinkhole parameters, and the
// static block/allow lists. Default returns the canonical compiled-in
// values; Load overlays a YAML file on them and reports a missing file as
// an error.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dnsfiltered/dnsfiltered/internal/policy"
)

// Upstream names a resolver the daemon can route to.
type Upstream struct {
	Name  string `yaml:"name"`
	UDPIP string `yaml:"udp_ip"`
	DoHURL string `yaml:"doh_url"`
}

// SinkholeFile is the YAML shape of the sinkhole section: an IPv4 in dotted
// decimal, parsed into policy.Sinkhole once loaded.
type SinkholeFile struct {
	IPv4 string `yaml:"ipv4"`
	TTL  uint32 `yaml:"ttl"`
}

// File is the YAML-serializable configuration shape.
type File struct {
	Listen     string       `yaml:"listen"`
	Upstreams  []Upstream   `yaml:"upstreams"`
	DefaultUDP string       `yaml:"default_udp"`
	DefaultDoH string       `yaml:"default_doh"`
	Sinkhole   SinkholeFile `yaml:"sinkhole"`
	BlockList  []string     `yaml:"block_list"`
	AllowList  []string     `yaml:"allow_list"`
}

// Config is the resolved, in-memory configuration the daemon consumes.
type Config struct {
	Listen     string
	Upstreams  map[string]Upstream
	DefaultUDP string
	DefaultDoH string
	Sinkhole   policy.Sinkhole
	Lists      policy.Lists
}

// canonicalUpstreams is the canonical upstream set: cb-security, cb-adult,
// cb-family, cloudflare, and google (§6 of the external-interfaces
// contract).
var canonicalUpstreams = []Upstream{
	{Name: "cb-security", UDPIP: "185.228.168.9", DoHURL: "https://doh.cleanbrowsing.org/doh/security-filter"},
	{Name: "cb-adult", UDPIP: "185.228.168.10", DoHURL: "https://doh.cleanbrowsing.org/doh/adult-filter"},
	{Name: "cb-family", UDPIP: "185.228.168.168", DoHURL: "https://doh.cleanbrowsing.org/doh/family-filter"},
	{Name: "cloudflare", UDPIP: "1.1.1.1", DoHURL: "https://cloudflare-dns.com/dns-query"},
	{Name: "google", UDPIP: "8.8.8.8", DoHURL: "https://dns.google/dns-query"},
}

// Default returns the canonical compiled-in configuration: UDP worker
// against CleanBrowsing Security, DoH worker against CleanBrowsing Family.
func Default() Config {
	upstreams := make(map[string]Upstream, len(canonicalUpstreams))
	for _, u := range canonicalUpstreams {
		upstreams[u.Name] = u
	}
	return Config{
		Listen:     "127.0.0.1:53",
		Upstreams:  upstreams,
		DefaultUDP: "cb-security",
		DefaultDoH: "cb-family",
		Sinkhole:   policy.DefaultSinkhole(),
		Lists:      policy.DefaultLists(),
	}
}

// Load reads path as YAML and overlays it onto Default(). Any field absent
// from the file keeps its default value; a nonexistent path is reported as
// an error for the caller (typically CLI flag handling) to decide whether
// to fall back silently.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if f.Listen != "" {
		cfg.Listen = f.Listen
	}
	for _, u := range f.Upstreams {
		cfg.Upstreams[u.Name] = u
	}
	if f.DefaultUDP != "" {
		cfg.DefaultUDP = f.DefaultUDP
	}
	if f.DefaultDoH != "" {
		cfg.DefaultDoH = f.DefaultDoH
	}
	if f.Sinkhole.IPv4 != "" {
		ip := net.ParseIP(f.Sinkhole.IPv4).To4()
		if ip == nil {
			return Config{}, fmt.Errorf("config: invalid sinkhole ipv4 %q", f.Sinkhole.IPv4)
		}
		copy(cfg.Sinkhole.IPv4[:], ip)
	}
	if f.Sinkhole.TTL != 0 {
		cfg.Sinkhole.TTL = f.Sinkhole.TTL
	}
	if len(f.BlockList) > 0 {
		cfg.Lists.Block = f.BlockList
	}
	if len(f.AllowList) > 0 {
		cfg.Lists.Allow = f.AllowList
	}

	return cfg, nil
}
