package database

import (
	"log"

	"ssdf-compass/internal/models"
)

// Сид справочников: группы/практики/задачи NIST SSDF, контролы и safeguard'ы
// CIS v8, дефолтные взвешенные маппинги между ними. Каждый блок защищён
// count-проверкой — повторный запуск ничего не дублирует.

func SeedReferenceData() {
	seedSsdf()
	seedCis()
	seedMappings()
}

func seedSsdf() {
	var count int64
	if err := DB.Model(&models.SsdfGroup{}).Count(&count).Error; err != nil {
		log.Printf("failed to check ssdf groups: %v", err)
		return
	}
	if count > 0 {
		return
	}

	groups := []models.SsdfGroup{
		{ID: "PO", Name: "Prepare the Organization"},
		{ID: "PS", Name: "Protect the Software"},
		{ID: "PW", Name: "Produce Well-Secured Software"},
		{ID: "RV", Name: "Respond to Vulnerabilities"},
	}

	practices := []models.SsdfPractice{
		{ID: "PO.1", SsdfGroupID: "PO", Name: "Define Security Requirements for Software Development"},
		{ID: "PO.2", SsdfGroupID: "PO", Name: "Implement Roles and Responsibilities"},
		{ID: "PO.3", SsdfGroupID: "PO", Name: "Implement Supporting Toolchains"},
		{ID: "PO.5", SsdfGroupID: "PO", Name: "Implement and Maintain Secure Environments for Software Development"},
		{ID: "PS.1", SsdfGroupID: "PS", Name: "Protect All Forms of Code from Unauthorized Access and Tampering"},
		{ID: "PS.2", SsdfGroupID: "PS", Name: "Provide a Mechanism for Verifying Software Release Integrity"},
		{ID: "PS.3", SsdfGroupID: "PS", Name: "Archive and Protect Each Software Release"},
		{ID: "PW.1", SsdfGroupID: "PW", Name: "Design Software to Meet Security Requirements and Mitigate Security Risks"},
		{ID: "PW.4", SsdfGroupID: "PW", Name: "Reuse Existing, Well-Secured Software"},
		{ID: "PW.7", SsdfGroupID: "PW", Name: "Review and/or Analyze Human-Readable Code"},
		{ID: "PW.8", SsdfGroupID: "PW", Name: "Test Executable Code"},
		{ID: "PW.9", SsdfGroupID: "PW", Name: "Configure Software to Have Secure Settings by Default"},
		{ID: "RV.1", SsdfGroupID: "RV", Name: "Identify and Confirm Vulnerabilities on an Ongoing Basis"},
		{ID: "RV.2", SsdfGroupID: "RV", Name: "Assess, Prioritize, and Remediate Vulnerabilities"},
		{ID: "RV.3", SsdfGroupID: "RV", Name: "Analyze Vulnerabilities to Identify Their Root Causes"},
	}

	tasks := []models.SsdfTask{
		{ID: "PO.1.1", SsdfPracticeID: "PO.1", Name: "Identify and document all security requirements for the organization's software development"},
		{ID: "PO.1.2", SsdfPracticeID: "PO.1", Name: "Communicate requirements to all third parties providing commercial software components"},
		{ID: "PO.2.1", SsdfPracticeID: "PO.2", Name: "Create new roles and alter responsibilities for existing roles as needed"},
		{ID: "PO.3.1", SsdfPracticeID: "PO.3", Name: "Specify which tools or tool types must or should be included in each toolchain"},
		{ID: "PO.3.2", SsdfPracticeID: "PO.3", Name: "Follow recommended security practices to deploy, operate, and maintain tools"},
		{ID: "PO.5.1", SsdfPracticeID: "PO.5", Name: "Separate and protect each environment involved in software development"},
		{ID: "PS.1.1", SsdfPracticeID: "PS.1", Name: "Store all forms of code based on the principle of least privilege"},
		{ID: "PS.2.1", SsdfPracticeID: "PS.2", Name: "Make software integrity verification information available to software acquirers"},
		{ID: "PS.3.1", SsdfPracticeID: "PS.3", Name: "Securely archive the necessary files and supporting data to be retained for each release"},
		{ID: "PW.1.1", SsdfPracticeID: "PW.1", Name: "Use forms of risk modeling to help assess the security risk for the software"},
		{ID: "PW.4.1", SsdfPracticeID: "PW.4", Name: "Acquire and maintain well-secured software components for reuse"},
		{ID: "PW.7.1", SsdfPracticeID: "PW.7", Name: "Determine whether code review or code analysis should be performed"},
		{ID: "PW.7.2", SsdfPracticeID: "PW.7", Name: "Perform the code review and/or code analysis based on the organization's processes"},
		{ID: "PW.8.1", SsdfPracticeID: "PW.8", Name: "Determine whether executable code testing should be performed"},
		{ID: "PW.8.2", SsdfPracticeID: "PW.8", Name: "Scope the testing, design the tests, perform the testing, and document the results"},
		{ID: "PW.9.1", SsdfPracticeID: "PW.9", Name: "Define a secure baseline by determining how to configure each setting"},
		{ID: "RV.1.1", SsdfPracticeID: "RV.1", Name: "Gather information from software acquirers, users, and public sources on potential vulnerabilities"},
		{ID: "RV.1.2", SsdfPracticeID: "RV.1", Name: "Review, analyze, and/or test the software's code to identify undiscovered vulnerabilities"},
		{ID: "RV.2.1", SsdfPracticeID: "RV.2", Name: "Analyze each vulnerability to gather sufficient information about risk"},
		{ID: "RV.2.2", SsdfPracticeID: "RV.2", Name: "Plan and implement risk responses for vulnerabilities"},
		{ID: "RV.3.1", SsdfPracticeID: "RV.3", Name: "Analyze identified vulnerabilities to determine their root causes"},
	}

	if err := DB.Create(&groups).Error; err != nil {
		log.Printf("failed to seed ssdf groups: %v", err)
		return
	}
	if err := DB.Create(&practices).Error; err != nil {
		log.Printf("failed to seed ssdf practices: %v", err)
		return
	}
	if err := DB.Create(&tasks).Error; err != nil {
		log.Printf("failed to seed ssdf tasks: %v", err)
		return
	}
	log.Printf("seeded SSDF catalog: %d groups, %d practices, %d tasks", len(groups), len(practices), len(tasks))
}

func seedCis() {
	var count int64
	if err := DB.Model(&models.CisControl{}).Count(&count).Error; err != nil {
		log.Printf("failed to check cis controls: %v", err)
		return
	}
	if count > 0 {
		return
	}

	controls := []models.CisControl{
		{ID: "2", Name: "Inventory and Control of Software Assets"},
		{ID: "3", Name: "Data Protection"},
		{ID: "4", Name: "Secure Configuration of Enterprise Assets and Software"},
		{ID: "6", Name: "Access Control Management"},
		{ID: "7", Name: "Continuous Vulnerability Management"},
		{ID: "8", Name: "Audit Log Management"},
		{ID: "14", Name: "Security Awareness and Skills Training"},
		{ID: "16", Name: "Application Software Security"},
		{ID: "18", Name: "Penetration Testing"},
	}

	safeguards := []models.CisSafeguard{
		{ID: "2.1", CisControlID: "2", Name: "Establish and Maintain a Software Inventory", IG: models.IG1},
		{ID: "4.1", CisControlID: "4", Name: "Establish and Maintain a Secure Configuration Process", IG: models.IG1},
		{ID: "6.1", CisControlID: "6", Name: "Establish an Access Granting Process", IG: models.IG1},
		{ID: "7.1", CisControlID: "7", Name: "Establish and Maintain a Vulnerability Management Process", IG: models.IG1},
		{ID: "7.4", CisControlID: "7", Name: "Perform Automated Application Patch Management", IG: models.IG1},
		{ID: "7.7", CisControlID: "7", Name: "Remediate Detected Vulnerabilities", IG: models.IG2},
		{ID: "14.9", CisControlID: "14", Name: "Conduct Role-Specific Security Awareness and Skills Training", IG: models.IG2},
		{ID: "16.1", CisControlID: "16", Name: "Establish and Maintain a Secure Application Development Process", IG: models.IG2},
		{ID: "16.2", CisControlID: "16", Name: "Establish and Maintain a Process to Accept and Address Software Vulnerabilities", IG: models.IG2},
		{ID: "16.11", CisControlID: "16", Name: "Leverage Vetted Modules or Services for Application Security Components", IG: models.IG2},
		{ID: "16.12", CisControlID: "16", Name: "Implement Code-Level Security Checks", IG: models.IG3},
		{ID: "16.13", CisControlID: "16", Name: "Conduct Application Penetration Testing", IG: models.IG3},
		{ID: "18.2", CisControlID: "18", Name: "Perform Periodic External Penetration Tests", IG: models.IG2},
	}

	if err := DB.Create(&controls).Error; err != nil {
		log.Printf("failed to seed cis controls: %v", err)
		return
	}
	if err := DB.Create(&safeguards).Error; err != nil {
		log.Printf("failed to seed cis safeguards: %v", err)
		return
	}
	log.Printf("seeded CIS catalog: %d controls, %d safeguards", len(controls), len(safeguards))
}

func seedMappings() {
	var count int64
	if err := DB.Model(&models.SsdfCisMapping{}).Count(&count).Error; err != nil {
		log.Printf("failed to check mappings: %v", err)
		return
	}
	if count > 0 {
		return
	}

	mappings := []models.SsdfCisMapping{
		{SsdfTaskID: "PO.1.1", CisSafeguardID: "16.1", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "PO.1.2", CisSafeguardID: "16.1", MappingType: models.MappingSupports, Weight: 0.6},
		{SsdfTaskID: "PO.2.1", CisSafeguardID: "14.9", MappingType: models.MappingDirect, Weight: 0.9},
		{SsdfTaskID: "PO.3.1", CisSafeguardID: "16.11", MappingType: models.MappingPartial, Weight: 0.8},
		{SsdfTaskID: "PO.3.2", CisSafeguardID: "4.1", MappingType: models.MappingPartial, Weight: 0.7},
		{SsdfTaskID: "PO.5.1", CisControlID: "4", MappingType: models.MappingPartial, Weight: 0.8},
		{SsdfTaskID: "PS.1.1", CisSafeguardID: "6.1", MappingType: models.MappingPartial, Weight: 0.8},
		{SsdfTaskID: "PS.1.1", CisControlID: "3", MappingType: models.MappingSupports, Weight: 0.5},
		{SsdfTaskID: "PS.2.1", CisControlID: "2", MappingType: models.MappingSupports, Weight: 0.5},
		{SsdfTaskID: "PS.3.1", CisSafeguardID: "2.1", MappingType: models.MappingSupports, Weight: 0.6},
		{SsdfTaskID: "PW.1.1", CisSafeguardID: "16.1", MappingType: models.MappingPartial, Weight: 0.9},
		{SsdfTaskID: "PW.4.1", CisSafeguardID: "16.11", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "PW.7.1", CisSafeguardID: "16.12", MappingType: models.MappingPartial, Weight: 0.7},
		{SsdfTaskID: "PW.7.2", CisSafeguardID: "16.12", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "PW.8.1", CisSafeguardID: "16.13", MappingType: models.MappingPartial, Weight: 0.7},
		{SsdfTaskID: "PW.8.2", CisSafeguardID: "16.13", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "PW.8.2", CisSafeguardID: "18.2", MappingType: models.MappingSupports, Weight: 0.5},
		{SsdfTaskID: "PW.9.1", CisSafeguardID: "4.1", MappingType: models.MappingDirect, Weight: 0.9},
		{SsdfTaskID: "RV.1.1", CisSafeguardID: "7.1", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "RV.1.2", CisSafeguardID: "16.2", MappingType: models.MappingPartial, Weight: 0.8},
		{SsdfTaskID: "RV.2.1", CisSafeguardID: "7.7", MappingType: models.MappingPartial, Weight: 0.8},
		{SsdfTaskID: "RV.2.2", CisSafeguardID: "7.7", MappingType: models.MappingDirect, Weight: 1.0},
		{SsdfTaskID: "RV.2.2", CisSafeguardID: "7.4", MappingType: models.MappingSupports, Weight: 0.5},
		{SsdfTaskID: "RV.3.1", CisControlID: "8", MappingType: models.MappingSupports, Weight: 0.4},
	}

	if err := DB.Create(&mappings).Error; err != nil {
		log.Printf("failed to seed mappings: %v", err)
		return
	}
	log.Printf("seeded %d SSDF→CIS mappings", len(mappings))
}
