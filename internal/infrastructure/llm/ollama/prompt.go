package ollama

import (
	"fmt"
	"strings"
)

// The prompt delegates the intelligence of extraction to the model but
// pins its output shape to the same rules the deterministic extractor
// follows.
func buildAnalysisPrompt(fileName string, pathSegments []string) string {
	return fmt.Sprintf(`You classify office equipment documentation from Vietnam.
Given a filename and its folder path, return a strict JSON object with keys:
brand (string), models (array of strings), category (string), topic (string), tags (array of strings).
No markdown, no extra keys, no prose.

Rules:
- brand must be one of: Ricoh, Toshiba, Canon, Sharp, HP, Konica Minolta, Kyocera, Brother, Epson, Xerox, Samsung, Panasonic, Lexmark, Oki. Use "" when unsure; never invent a brand.
- Expand compressed model ranges into discrete models: "MPC 3054-4054" means ["MPC 3054","MPC 4054"]; "iR 2520/2525" means ["iR 2520","iR 2525"].
- models holds specific units (e.g. "MPC 3054"), not series prefixes.
- tags are short free-form labels; leave [] when none apply.
- Folder names may be Vietnamese with diacritics.

Filename: %s
Folder path: %s
`, fileName, strings.Join(pathSegments, " / "))
}
