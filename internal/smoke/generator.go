package smoke

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/adapters/source"
	"github.com/okian/pulse/pkg/logger"
)

// Score distribution cases, roughly one band per case with a wide-range fallback.
const (
	caseChampion = iota
	caseConcerned
	caseDisengaged
	caseAtRisk
	caseWideRange
	caseCount
)

// dirtyEvery controls how often a dirty row replaces a clean one.
const dirtyEvery = 10

var roles = []string{
	"Engineer", "Sales", "Support", "Marketing", "Finance",
	"Operations", "Design", "Product Manager", "Recruiter", "Data Analyst",
}

var firstNames = []string{
	"Ava", "Ben", "Chloe", "Dario", "Elif", "Farah", "Goran", "Hana",
	"Ivan", "Jonas", "Kemal", "Lena", "Mika", "Nora", "Omar", "Priya",
}

var lastNames = []string{
	"Adler", "Brandt", "Costa", "Dimitrov", "Evans", "Fischer", "Garcia",
	"Horvat", "Ito", "Jensen", "Kowalski", "Larsen", "Moreau", "Novak",
}

var feedback = [caseCount][]string{
	caseChampion: {
		"Loves the team and the roadmap, volunteers to mentor new hires.",
		"Very happy with growth opportunities and recognition.",
		"Enjoys the work and feels trusted by leadership.",
	},
	caseConcerned: {
		"Engaged but worried about workload during releases.",
		"Likes the team, would like clearer career paths.",
		"Motivated, though meetings eat into focus time.",
	},
	caseDisengaged: {
		"Feels the work has become repetitive.",
		"Rarely hears back on suggestions and has stopped offering them.",
		"Unsure how their role contributes to company goals.",
	},
	caseAtRisk: {
		"Frustrated with compensation and considering other offers.",
		"Reports burnout and conflict with their manager.",
		"Does not see a future on the team.",
	},
	caseWideRange: {
		"Mixed feelings about the recent reorganisation.",
		"No strong opinion either way this quarter.",
	},
}

// Header returns the column names written by Generate. They match the
// default source column mapping.
func Header() []string {
	cols := source.DefaultColumns()
	return []string{cols.EmployeeID, cols.EmployeeName, cols.Content, cols.ContentFallback, cols.Role, cols.Sentiment}
}

// Generate writes cfg.Rows synthetic feedback rows as CSV to w and returns
// the number of data rows written.
func Generate(ctx context.Context, cfg GenerateConfig, w io.Writer) (int, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	logger.Get().Info(ctx, "generating synthetic feedback",
		logger.Int("rows", cfg.Rows),
		logger.Bool("dirty", cfg.Dirty))

	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < cfg.Rows; i++ {
		if err := ctx.Err(); err != nil {
			return i, fmt.Errorf("context cancelled during generation: %w", err)
		}
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return i, fmt.Errorf("employee id %d: %w", i, err)
		}
		row := generateRow(rng, id.String(), cfg.Dirty && i%dirtyEvery == dirtyEvery-1)
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return cfg.Rows, fmt.Errorf("flush: %w", err)
	}
	logger.Get().Info(ctx, "generated synthetic feedback", logger.Int("count", cfg.Rows))
	return cfg.Rows, nil
}

// generateRow returns one CSV row in Header order.
func generateRow(rng *rand.Rand, id string, dirty bool) []string {
	c := rng.IntN(caseCount)
	name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
	text := feedback[c][rng.IntN(len(feedback[c]))]
	role := roles[rng.IntN(len(roles))]
	score := strconv.FormatFloat(generateScore(rng, c), 'f', 1, 64)

	content, comment := text, ""
	if rng.IntN(4) == 0 {
		// Older rows only carry the short comment column.
		content, comment = "", text
	}

	if dirty {
		switch rng.IntN(4) {
		case 0:
			score = ""
		case 1:
			score = "n/a"
		case 2:
			score = "104.5"
		case 3:
			role = ""
		}
	}
	return []string{id, name, content, comment, role, score}
}

// generateScore returns a score inside the band selected by c.
func generateScore(rng *rand.Rand, c int) float64 {
	switch c {
	case caseChampion:
		return 75 + rng.Float64()*25
	case caseConcerned:
		return 50 + rng.Float64()*24.9
	case caseDisengaged:
		return 25 + rng.Float64()*24.9
	case caseAtRisk:
		return rng.Float64() * 24.9
	default:
		return rng.Float64() * 100
	}
}
