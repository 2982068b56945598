package domain

// Control is one entry of the compliance control framework, grouped by pillar.
// The catalog backs task routing fallback and task titles; it is not a
// persistence concern.
type Control struct {
	ID     string
	Name   string
	Pillar Pillar
	Owners []string
}

var Controls = []Control{
	{ID: "IC-01", Name: "Transaction Monitoring Program", Pillar: PillarInternalControls, Owners: []string{"AML Operations", "Risk Management"}},
	{ID: "IC-02", Name: "Suspicious Activity Escalation Procedures", Pillar: PillarInternalControls, Owners: []string{"AML Operations", "BSA Officer"}},
	{ID: "IC-03", Name: "Sanctions Screening Program", Pillar: PillarInternalControls, Owners: []string{"AML Operations", "Compliance Training"}},
	{ID: "IC-04", Name: "Risk Assessment Methodology", Pillar: PillarInternalControls, Owners: []string{"Risk Management", "BSA Officer"}},
	{ID: "BSA-01", Name: "BSA Officer Designation & Authority", Pillar: PillarBSAOfficer, Owners: []string{"BSA Officer", "Legal & Regulatory Affairs"}},
	{ID: "BSA-02", Name: "Board Reporting & Oversight", Pillar: PillarBSAOfficer, Owners: []string{"BSA Officer", "Internal Audit"}},
	{ID: "BSA-03", Name: "Regulatory Examination Management", Pillar: PillarBSAOfficer, Owners: []string{"BSA Officer", "Legal & Regulatory Affairs"}},
	{ID: "BSA-04", Name: "Program Documentation & Updates", Pillar: PillarBSAOfficer, Owners: []string{"BSA Officer", "Compliance Training"}},
	{ID: "TR-01", Name: "New Employee BSA Training", Pillar: PillarTraining, Owners: []string{"Compliance Training", "Human Resources"}},
	{ID: "TR-02", Name: "Role-Based AML Training", Pillar: PillarTraining, Owners: []string{"Compliance Training", "AML Operations"}},
	{ID: "TR-03", Name: "Annual Refresher Training", Pillar: PillarTraining, Owners: []string{"Compliance Training"}},
	{ID: "TR-04", Name: "Training Records & Tracking", Pillar: PillarTraining, Owners: []string{"Compliance Training", "Human Resources"}},
	{ID: "IT-01", Name: "Annual Independent Audit", Pillar: PillarIndependentTesting, Owners: []string{"Internal Audit"}},
	{ID: "IT-02", Name: "Transaction Testing Sampling", Pillar: PillarIndependentTesting, Owners: []string{"Internal Audit", "AML Operations"}},
	{ID: "IT-03", Name: "Finding Remediation Tracking", Pillar: PillarIndependentTesting, Owners: []string{"Internal Audit", "BSA Officer"}},
	{ID: "IT-04", Name: "Model Validation", Pillar: PillarIndependentTesting, Owners: []string{"Internal Audit", "Risk Management"}},
	{ID: "CDD-01", Name: "Customer Identification Program (CIP)", Pillar: PillarCustomerDueDiligence, Owners: []string{"AML Operations", "Customer Onboarding"}},
	{ID: "CDD-02", Name: "Beneficial Ownership Identification", Pillar: PillarCustomerDueDiligence, Owners: []string{"AML Operations", "Customer Onboarding"}},
	{ID: "CDD-03", Name: "Enhanced Due Diligence (EDD)", Pillar: PillarCustomerDueDiligence, Owners: []string{"AML Operations", "Risk Management"}},
	{ID: "CDD-04", Name: "Ongoing Customer Monitoring", Pillar: PillarCustomerDueDiligence, Owners: []string{"AML Operations", "Risk Management"}},
}

func ControlByID(id string) (Control, bool) {
	for _, c := range Controls {
		if c.ID == id {
			return c, true
		}
	}
	return Control{}, false
}

func ControlsByPillar(p Pillar) []Control {
	var out []Control
	for _, c := range Controls {
		if c.Pillar == p {
			out = append(out, c)
		}
	}
	return out
}
