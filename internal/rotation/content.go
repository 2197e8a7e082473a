// Package rotation implements the campaign content and image rotation pools.
package rotation

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

// usedContentWindow bounds how many recent selections are excluded from rotation.
const usedContentWindow = 15

// ContentRotator serves campaign templates while avoiding short-term repeats.
// The pool is immutable after load; only the used-window mutates.
type ContentRotator struct {
	mu   sync.Mutex
	pool []string
	used []string
	log  *logger.Logger
}

// NewContentRotator loads the content pool from a newline-delimited file.
// Lines starting with '#' and blank lines are skipped, and the {utm} placeholder
// is substituted with utmLink at load time. If the file does not exist the
// built-in default pool is used.
func NewContentRotator(path, utmLink string, log *logger.Logger) *ContentRotator {
	r := &ContentRotator{log: log.WithComponent("content")}

	pool, err := loadContentPool(path, utmLink)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("Content pool file not loaded, using defaults")
		pool = defaultContentPool(utmLink)
	} else {
		r.log.Info().Int("count", len(pool)).Str("path", path).Msg("Loaded content pool")
	}

	r.pool = pool
	return r
}

// NewContentRotatorFromPool builds a rotator over an explicit pool.
func NewContentRotatorFromPool(pool []string, log *logger.Logger) *ContentRotator {
	return &ContentRotator{pool: pool, log: log.WithComponent("content")}
}

// Fresh returns a template that has not been used recently. When every template
// has been used the window is cleared and the whole pool becomes eligible again.
// Returns an error only when the pool is empty.
func (r *ContentRotator) Fresh() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) == 0 {
		return "", fmt.Errorf("content pool is empty")
	}

	available := subtract(r.pool, r.used)
	if len(available) == 0 {
		r.used = nil
		available = r.pool
	}

	content := available[rand.Intn(len(available))]
	r.used = append(r.used, content)

	if len(r.used) > usedContentWindow {
		r.used = r.used[len(r.used)-usedContentWindow:]
	}

	return content, nil
}

// Size returns the pool size.
func (r *ContentRotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// subtract returns the elements of pool not present in used, preserving order.
func subtract(pool, used []string) []string {
	seen := make(map[string]struct{}, len(used))
	for _, u := range used {
		seen[u] = struct{}{}
	}

	var out []string
	for _, p := range pool {
		if _, ok := seen[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func loadContentPool(path, utmLink string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pool []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Templates in the file encode newlines as literal \n
		line = strings.ReplaceAll(line, `\n`, "\n")
		pool = append(pool, strings.ReplaceAll(line, "{utm}", utmLink))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no templates in %s", path)
	}
	return pool, nil
}

// defaultContentPool returns the built-in campaign templates.
func defaultContentPool(utm string) []string {
	return []string{
		"Tell AI: 'I want safe yield.'\n\nLevva's Smart Vaults make DeFi effortless! 5-25% APY\n\n" + utm,
		"Just deposited into Levva's AI vaults! No more DeFi complexity - just automated earnings\n\nWhat's your favorite feature?\n\n" + utm,
		"Tired of managing 10+ DeFi dashboards?\n\nLevva handles: Pendle, AAVE, Lido, Morpho, Curve + more!\n\nAll in one vault\n\n" + utm,
		"DeFi made simple:\n- Deposit once\n- AI handles the rest\n- Earn 5-25% APY\n- Non-custodial & audited\n\nZero complexity, real yield\n" + utm,
		"Replaced my DeFi spreadsheet mess with @levvafi\n\nSmart Vaults automate:\n- Allocations\n- Rebalancing\n- Yield optimization\n\nGame changer! " + utm,
		"Leveling up my DeFi game with @levvafi AI vaults!\n\nAutomated yield, zero stress.\n\nWhat's not to love? " + utm,
		"Watching my yield grow automatically with Levva!\n\nSet it and forget it strategy working perfectly\n\n" + utm,
		"Just optimized my portfolio with Levva's AI!\n\nNo more manual rebalancing - the bot handles everything\n\n" + utm,
		"Auto-rebalancing working perfectly!\n\nLevva's AI just adjusted my positions across multiple protocols\n\nZero effort required\n\n" + utm,
		"Celebrating consistent returns with @levvafi!\n\nPassive income should be this easy\n\n" + utm,
	}
}
