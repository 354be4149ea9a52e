package reference

import (
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// DefaultProtocols returns the built-in institutional protocol table used by
// the seed script and as a fixture for local development. Column values use
// the closed contrast vocabulary the resolver enforces.
func DefaultProtocols() []*entities.Protocol {
	return []*entities.Protocol{
		{
			Name:         "Renal mass",
			IVContrast:   "C+ and C-",
			OralContrast: "None",
			Acquisitions: "Pre-contrast, nephrographic, delayed",
			Indications:  "renal mass, renal lesion, indeterminate renal cyst, renal mass characterization",
			Notes:        "Multiphase for lesion enhancement assessment.",
		},
		{
			Name:         "Renal stone",
			IVContrast:   "C-",
			OralContrast: "None",
			Acquisitions: "Low-dose non-contrast",
			Indications:  "flank pain, kidney stone, nephrolithiasis, renal colic",
			Notes:        "Also served by the Renal colic reference row.",
		},
		{
			Name:         "Renal colic",
			IVContrast:   "C-",
			OralContrast: "None",
			Acquisitions: "Low-dose non-contrast",
			Indications:  "flank pain, suspected ureteral stone, hematuria with flank pain",
		},
		{
			Name:         "CT urogram",
			IVContrast:   "C+ and C-",
			OralContrast: "Water base",
			Acquisitions: "Non-contrast, nephrographic, excretory",
			Indications:  "hematuria, urothelial tumor surveillance",
		},
		{
			Name:         "Appendicitis",
			IVContrast:   "C+",
			OralContrast: "None",
			Acquisitions: "Portal venous",
			Indications:  "rlq pain, rule out appendicitis",
		},
		{
			Name:         "Pancreatitis",
			IVContrast:   "C+",
			OralContrast: "Water base",
			Acquisitions: "Pancreatic parenchymal, portal venous",
			Indications:  "epigastric pain, lipase elevation, pancreatitis follow-up",
		},
		{
			Name:         "CT enterography",
			IVContrast:   "C+",
			OralContrast: "Water Only",
			Acquisitions: "Enteric phase",
			Indications:  "crohn disease, small bowel evaluation, obscure gi bleeding",
			Notes:        "Neutral oral contrast required for mural enhancement.",
		},
		{
			Name:         "Abdominal abscess",
			IVContrast:   "C+",
			OralContrast: "Readi-Cat",
			Acquisitions: "Portal venous",
			Indications:  "abscess, postoperative fluid collection, fever of unknown origin",
		},
		{
			Name:         "Routine abdomen pelvis",
			IVContrast:   "C+",
			OralContrast: "None",
			Acquisitions: "Portal venous",
			Indications:  "abdominal pain, generalized abdominal symptoms",
		},
		{
			Name:         "Trauma C/A/P",
			IVContrast:   "C+",
			OralContrast: "None",
			Acquisitions: "Arterial chest, portal venous abdomen pelvis",
			Indications:  "major trauma, mva, polytrauma",
		},
		{
			Name:         "Rectal/perianal fistula",
			IVContrast:   "C+",
			OralContrast: "Other (rectal)",
			Acquisitions: "Portal venous with rectal contrast",
			Indications:  "perianal fistula, rectal cancer staging, anal cancer",
		},
	}
}
