// Package questions holds the fixed dengue intake questionnaire.  The bank
// is immutable configuration data: adding or removing a question here is all
// that is needed, the engine derives everything else from the bank.
package questions

import "feverscan/pkg"

// bank is the ordered questionnaire.  Option sets are heterogeneous: most
// questions are yes/no/unsure, the duration question uses day buckets and two
// questions use frequency or severity scales.
var bank = []pkg.Question{
	{
		Text:    "Apakah Anda mengalami demam tinggi secara tiba-tiba (di atas 38°C)?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Sudah berapa hari Anda mengalami demam?",
		Options: []string{"1 hari", "2–3 hari", "Lebih dari 3 hari"},
	},
	{
		Text:    "Apakah Anda merasa nyeri di belakang mata?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda mengalami nyeri otot atau sendi yang parah (sering disebut 'breakbone fever')?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda mengalami sakit kepala berat?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda merasa sangat lelah atau lemas meskipun hanya sedikit aktivitas?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda mengalami mual atau muntah?",
		Options: []string{"Tidak", "Kadang", "Sering"},
	},
	{
		Text:    "Apakah Anda mengalami ruam kulit atau bintik-bintik merah?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda mengalami perdarahan ringan, seperti mimisan atau gusi berdarah?",
		Options: []string{"Ya", "Tidak"},
	},
	{
		Text:    "Apakah perut Anda terasa nyeri, terutama di bagian bawah kanan?",
		Options: []string{"Ya", "Tidak", "Tidak Yakin"},
	},
	{
		Text:    "Apakah Anda merasa pusing atau ingin pingsan saat berdiri?",
		Options: []string{"Ya", "Tidak", "Kadang-kadang"},
	},
	{
		Text:    "Apakah Anda kesulitan makan atau minum karena merasa mual atau lemas?",
		Options: []string{"Tidak", "Sedikit", "Parah"},
	},
}

// Count returns the number of questions in the bank.
func Count() int { return len(bank) }

// At returns the question at position i.  Panics if i is out of range, the
// engine only asks for indexes below Count.
func At(i int) pkg.Question { return bank[i] }

// IsTerminal reports whether index i is one past the last question, i.e. the
// intake is complete.
func IsTerminal(i int) bool { return i == len(bank) }

// All returns the full bank in order.  The returned slice must not be
// modified.
func All() []pkg.Question { return bank }
