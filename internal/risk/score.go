// Package risk implements the deterministic dengue risk scorer.  It is the
// local substitute used whenever the generative backend is disabled or
// unreachable, and must stay a pure function so both modes can be tested
// independently.
package risk

import (
	"fmt"
	"strings"

	"feverscan/pkg"
)

// Assessment is the scorer output: a qualitative tier plus the formatted
// rationale shown to the user.
type Assessment struct {
	Tier      pkg.RiskTier
	Rationale string
}

// rule maps an answer keyword to a weight.  Rules are evaluated in order and
// the first match wins, so more specific keywords come first.
type rule struct {
	keyword string
	weight  int
}

// weightRules classifies a single answer.  Matching is case-insensitive
// substring; anything unmatched (including "tidak" and "tidak yakin") scores
// zero.
var weightRules = []rule{
	// Negations first: "tidak yakin" would otherwise match the "ya"
	// substring inside "yakin".
	{"tidak yakin", 0},
	{"tidak", 0},
	{"no", 0},
	{"unsure", 0},
	{"lebih dari 3", 2}, // duration: more than 3 days
	{"2–3", 1},          // duration: 2-3 days
	{"2-3", 1},
	{"sering", 2},
	{"parah", 2},
	{"severe", 2},
	{"often", 2},
	{"kadang", 1},
	{"sedikit", 1},
	{"sometimes", 1},
	{"moderate", 1},
	{"ya", 2},
	{"yes", 2},
}

// maxWeightPerAnswer is the ceiling a single answer can contribute; the
// percentage is normalised against it.
const maxWeightPerAnswer = 2

// Tier thresholds on the normalised percentage.
const (
	highThreshold   = 70
	mediumThreshold = 40
)

// weigh returns the contribution of one answer value.
func weigh(value string) int {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, r := range weightRules {
		if strings.Contains(v, r.keyword) {
			return r.weight
		}
	}
	return 0
}

// Score maps a completed answer set to a risk assessment.  It is pure and
// deterministic: the same answers always produce the same output.
func Score(answers []pkg.Answer) Assessment {
	if len(answers) == 0 {
		return Assessment{Tier: pkg.TierLow, Rationale: rationaleFor(pkg.TierLow, 0)}
	}
	sum := 0
	for _, a := range answers {
		sum += weigh(a.Value)
	}
	percentage := sum * 100 / (maxWeightPerAnswer * len(answers))

	tier := pkg.TierLow
	switch {
	case percentage >= highThreshold:
		tier = pkg.TierHigh
	case percentage >= mediumThreshold:
		tier = pkg.TierMedium
	}
	return Assessment{Tier: tier, Rationale: rationaleFor(tier, percentage)}
}

// rationaleFor renders the templated recommendation block for a tier.
func rationaleFor(tier pkg.RiskTier, percentage int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kemungkinan demam berdarah: %s (skor gejala %d%%).\n\n", tier, percentage)

	b.WriteString("Tindakan yang direkomendasikan:\n")
	switch tier {
	case pkg.TierHigh:
		b.WriteString("- Segera periksakan diri ke fasilitas kesehatan terdekat.\n")
		b.WriteString("- Minum banyak cairan dan hindari obat pereda nyeri golongan NSAID (ibuprofen, aspirin).\n")
		b.WriteString("- Pantau suhu tubuh setiap beberapa jam.\n")
	case pkg.TierMedium:
		b.WriteString("- Istirahat total dan perbanyak minum cairan.\n")
		b.WriteString("- Periksakan diri ke dokter dalam 24 jam jika gejala tidak membaik.\n")
		b.WriteString("- Gunakan parasetamol untuk menurunkan demam, hindari aspirin.\n")
	default:
		b.WriteString("- Istirahat yang cukup dan jaga asupan cairan.\n")
		b.WriteString("- Pantau gejala selama 2-3 hari ke depan.\n")
	}

	b.WriteString("\nTanda peringatan yang perlu diperhatikan:\n")
	b.WriteString("- Nyeri perut yang parah atau muntah terus-menerus\n")
	b.WriteString("- Perdarahan dari hidung atau gusi\n")
	b.WriteString("- Bintik-bintik merah di kulit\n")
	b.WriteString("- Kesulitan bernapas\n")

	b.WriteString("\nSegera cari bantuan medis jika: ")
	switch tier {
	case pkg.TierHigh:
		b.WriteString("salah satu tanda peringatan di atas muncul, atau demam tidak turun dalam 24 jam.")
	case pkg.TierMedium:
		b.WriteString("tanda peringatan muncul, atau demam berlanjut lebih dari 3 hari.")
	default:
		b.WriteString("gejala memburuk atau tanda peringatan muncul.")
	}
	b.WriteString("\n\nCatatan: hasil ini bukan pengganti diagnosis medis profesional.")
	return b.String()
}
