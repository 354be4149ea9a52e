package openai

import (
	"fmt"
	"strings"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
)

// draftSystemPrompt frames the model as the drafting collaborator. The reply
// is untrusted either way; the override resolver enforces the institutional
// policy downstream.
const draftSystemPrompt = `You are an expert radiologist AI assistant. Your task is to 
analyze patient information and recommend appropriate CT protocols.`

const protocolSelectionGuidance = `Protocol Selection Guidance:
- Choose the protocol from the reference document that best matches the exam requested and the clinical indication.
- Priority is 1 (emergent) through 4 (routine); ER and ED patients are always priority 1.
- Respect the eGFR guidance below when choosing IV contrast.
- If no specific protocol applies, default to A/P.`

// BuildUserPrompt renders the per-case user message: the patient block, the
// selection guidance, the renal guidance line, the protocol reference block,
// and the exact response-format instruction.
func BuildUserPrompt(c *entities.PatientCase, table *entities.ProtocolTable, renalGuidance string) string {
	var b strings.Builder

	b.WriteString("\nPatient Information:\n")
	fmt.Fprintf(&b, "Study ID: %s\n", c.StudyID)
	fmt.Fprintf(&b, "Location: %s\n", c.Location)
	fmt.Fprintf(&b, "CT Exam Requested: %s\n", c.Exam)
	fmt.Fprintf(&b, "Clinical Info: %s\n", c.ClinicalInfo)
	fmt.Fprintf(&b, "Prior Contrast Reaction: %s\n", c.PriorReactionOrDefault())
	fmt.Fprintf(&b, "eGFR: %s mL/min\n", c.EGFR)

	b.WriteString("\n")
	b.WriteString(protocolSelectionGuidance)
	b.WriteString("\n\n")
	b.WriteString(renalGuidance)
	b.WriteString("\n\n")
	b.WriteString(buildProtocolGuidance(table))

	b.WriteString(`
Provide your recommendation in this exact JSON format:
{
    "priority": 1 or 2 or 3 or 4,
    "protocol": "A/P or C/A/P or specific protocol",
    "iv_contrast": "C+ or C- or C+ and C-",
    "oral_contrast": "None or Water base or Water Only or Readi-Cat or Other"
}`)

	return b.String()
}

// buildProtocolGuidance renders the loaded reference table as the structured
// block the model grounds its protocol choice on.
func buildProtocolGuidance(table *entities.ProtocolTable) string {
	var b strings.Builder
	b.WriteString("CT Protocol Reference Document Specifications:\n")
	if table == nil {
		return b.String()
	}
	for _, row := range table.Protocols() {
		fmt.Fprintf(&b, "Protocol: %s\n", row.Name)
		fmt.Fprintf(&b, "- IV Contrast: %s\n", row.IVContrast)
		fmt.Fprintf(&b, "- Oral Contrast: %s\n", row.OralContrast)
		fmt.Fprintf(&b, "- Example Indications: %s\n", row.Indications)
	}
	return b.String()
}
