package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnsfiltered/dnsfiltered/internal/config"
	"github.com/dnsfiltered/dnsfiltered/internal/daemon"
	"github.com/dnsfiltered/dnsfiltered/internal/diagnostics"
	"github.com/dnsfiltered/dnsfiltered/internal/transport"
	"github.com/dnsfiltered/dnsfiltered/internal/wire"
)

// fixedQueryID is the transaction id every synthesized one-shot query
// carries, matching the daemon's reference CLI behavior.
const fixedQueryID = 0x1234

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printHelp()
	case "b64":
		runB64(os.Args[2:])
	case "explain":
		runExplain(os.Args[2:])
	case "resolve":
		runResolve(os.Args[2:])
	case "daemon":
		runDaemon(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("dnsfiltered — a filtering DNS resolver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dnsfiltered help")
	fmt.Println("  dnsfiltered b64 <domain>...")
	fmt.Println("  dnsfiltered explain <base64>")
	fmt.Println("  dnsfiltered resolve <domain> [--doh] [--cb-adult|--cb-family|--cb-security|--cloudflare|--google]")
	fmt.Println("  dnsfiltered daemon [--config path] [--listen addr]")
}

func buildQuery(domain string) *wire.DecomposedPacket {
	return &wire.DecomposedPacket{
		ID:               fixedQueryID,
		RecursionDesired: true,
		Opcode:           wire.OpcodeQuery,
		ResponseCode:     wire.NoError,
		Questions: []wire.Question{
			{Label: wire.Domain(domain), QType: wire.TypeA, QClass: wire.ClassIN},
		},
	}
}

func runB64(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dnsfiltered b64 <domain>...")
		os.Exit(1)
	}
	for _, domain := range args {
		q := buildQuery(domain)
		pkt, err := wire.EncodePacket(q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", domain, err)
			os.Exit(1)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(pkt))
	}
}

func runExplain(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: dnsfiltered explain <base64>")
		os.Exit(1)
	}
	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode base64: %v\n", err)
		os.Exit(1)
	}
	decoded, err := wire.DecodePacket(wire.Packet(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode packet: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(diagnostics.Render(decoded))
}

func runResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	useDoH := fs.Bool("doh", false, "resolve via DNS-over-HTTPS instead of plain UDP")
	cbAdult := fs.Bool("cb-adult", false, "use CleanBrowsing Adult filter")
	cbFamily := fs.Bool("cb-family", false, "use CleanBrowsing Family filter")
	cbSecurity := fs.Bool("cb-security", false, "use CleanBrowsing Security filter")
	cloudflare := fs.Bool("cloudflare", false, "use Cloudflare")
	google := fs.Bool("google", false, "use Google")
	// Flags may follow the domain, so keep parsing past each positional arg.
	var rest []string
	for {
		fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		rest = append(rest, args[0])
		args = args[1:]
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: dnsfiltered resolve <domain> [flags]")
		os.Exit(1)
	}
	domain := rest[0]

	cfg := config.Default()
	// The one-shot resolve command defaults to CleanBrowsing Adult,
	// independent of the daemon's own default upstream.
	name := "cb-adult"
	switch {
	case *cbAdult:
		name = "cb-adult"
	case *cbFamily:
		name = "cb-family"
	case *cbSecurity:
		name = "cb-security"
	case *cloudflare:
		name = "cloudflare"
	case *google:
		name = "google"
	}
	upstream, ok := cfg.Upstreams[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown upstream %q\n", name)
		os.Exit(1)
	}

	q := buildQuery(domain)
	pkt, err := wire.EncodePacket(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var reply []byte
	if *useDoH {
		reply, err = transport.Resolve(ctx, upstream.DoHURL, pkt)
	} else {
		reply, err = transport.Exchange(ctx, pkt, upstream.UDPIP)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}

	decoded, err := wire.DecodePacket(wire.Packet(reply))
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode reply: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(diagnostics.Render(decoded))
}

func runDaemon(args []string) {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML configuration (optional)")
	listenAddr := fs.String("listen", "", "override listen address")
	fs.Parse(args)

	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║             dnsfiltered daemon            ║")
	fmt.Println("╚══════════════════════════════════════════╝")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v (falling back to defaults)\n", err)
		} else {
			cfg = loaded
		}
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	fmt.Printf("Listen:      %s\n", cfg.Listen)
	fmt.Printf("UDP upstream: %s (%s)\n", cfg.DefaultUDP, cfg.Upstreams[cfg.DefaultUDP].UDPIP)
	fmt.Printf("DoH upstream: %s (%s)\n", cfg.DefaultDoH, cfg.Upstreams[cfg.DefaultDoH].DoHURL)
	fmt.Println()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	d := daemon.New(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println()
		fmt.Println("shutting down")
		cancel()
	}()

	if err := d.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
}
