package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/hausmon/coinbase-sensor/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		apiKey        string
		apiSecret     string
		nativeBalance bool
		excludeStr    string
		minScanStr    string
		updateStr     string
		listenAddr    string
		apiBaseURL    string
		tlsDomainsStr string
		certCacheDir  string
		confirm       bool
	)

	// defaults
	minScanStr = "60s"
	updateStr = "30s"
	listenAddr = config.DefaultListenAddress
	apiBaseURL = config.DefaultAPIBaseURL

	// step 1: welcome
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("COINBASE SENSOR SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire your wallets into the house.\n"))

	// credentials
	fmt.Println(stepStyle.Render("STEP 1: CREDENTIALS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Coinbase API Key").
				Description("Leave empty to read COINBASE_API_KEY from the environment").
				Value(&apiKey),
			huh.NewInput().
				Title("Coinbase API Secret").
				Description("Leave empty to read COINBASE_API_SECRET from the environment").
				Value(&apiSecret).
				EchoMode(huh.EchoModePassword),
		),
	).Run()
	if err != nil {
		return err
	}

	// display
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINBASE SENSOR SETUP"))
	fmt.Println(stepStyle.Render("STEP 2: DISPLAY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[bool]().
				Title("Which balance should a sensor report?").
				Options(
					huh.NewOption("Account currency (BTC, ETH, ...)", false),
					huh.NewOption("Native currency (converted)", true),
				).
				Value(&nativeBalance),
			huh.NewInput().
				Title("Excluded Accounts").
				Description("Comma separated account names to skip (e.g. Vault,Savings)").
				Value(&excludeStr),
		),
	).Run()
	if err != nil {
		return err
	}

	// timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINBASE SENSOR SETUP"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Minimum Scan Interval").
				Description("Floor between remote refreshes per account (e.g. 60s)").
				Value(&minScanStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Update Interval").
				Description("How often sensors recompute their state (e.g. 30s)").
				Value(&updateStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// network
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINBASE SENSOR SETUP"))
	fmt.Println(stepStyle.Render("STEP 4: NETWORK"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("Status server address (e.g. :8126)").
				Value(&listenAddr).
				Validate(func(s string) error {
					if !strings.Contains(s, ":") {
						return fmt.Errorf("must be host:port or :port")
					}
					return nil
				}),
			huh.NewInput().
				Title("Coinbase API Base URL").
				Value(&apiBaseURL),
			huh.NewInput().
				Title("TLS Domains").
				Description("Comma separated domains for automatic HTTPS, empty for plain HTTP").
				Value(&tlsDomainsStr),
			huh.NewInput().
				Title("Certificate Cache Dir").
				Description("Only used with TLS domains").
				Value(&certCacheDir),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("COINBASE SENSOR SETUP"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	credSource := "environment"
	if apiKey != "" {
		credSource = "wizard"
	}

	// show summary
	summary := fmt.Sprintf(
		"Credentials: %s\nNative balance: %t\nExcluded: %s\nScan floor: %s\nUpdate every: %s\nListen: %s\n",
		credSource, nativeBalance, excludeStr, minScanStr, updateStr, listenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfgTmp := config.ConfigTmp{
		APIKey:          apiKey,
		APISecret:       apiSecret,
		NativeBalance:   nativeBalance,
		ExcludeWallets:  splitCSV(excludeStr),
		MinScanInterval: minScanStr,
		UpdateInterval:  updateStr,
		ListenAddress:   listenAddr,
		TLSDomains:      splitCSV(tlsDomainsStr),
		CertCacheDir:    certCacheDir,
	}
	if apiBaseURL != config.DefaultAPIBaseURL {
		cfgTmp.APIBaseURL = apiBaseURL
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	// write to config.gen.yaml
	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting sensors...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
