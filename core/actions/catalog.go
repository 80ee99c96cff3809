package actions

import "github.com/m3rciful/hrbot/core/dialogue"

// Action names as the host knows them. Mixed case is part of the contract.
const (
	Greet             = "action_greet"
	Language          = "action_language"
	PayrollMenu       = "action_payroll"
	Thanks            = "action_thanks"
	PF                = "action_pf"
	Pay               = "action_pay"
	Attendance        = "action_attendance"
	ReimbursementMenu = "action_reimbursement_menu"
	TravelAllowance   = "action_travel_allowance"
	PetrolAllowance   = "action_Petrol_allowance"
	DriverSalary      = "action_Driver_salary"
	Default           = "action_default"
	Goodbye           = "action_goodbye"
)

// Button payloads emitted by the menus.
const (
	PayloadPF            = "/PF"
	PayloadPayrollAtt    = "/Payroll_Att"
	PayloadReimbursement = "/Reimbursement"
	PayloadLanguageOpt   = "/Language_Opt"
	PayloadGoodbye       = "/goodbye"
	PayloadPayroll       = "Payroll"
	PayloadAttendance    = "Attendance"
	PayloadTravel        = "TA"
	PayloadDriver        = "DS"
	PayloadPetrol        = "PA"
)

const (
	textGreet         = "Dear Customer, welcome to Tramontina HR assistant. How can I assist you today?"
	textLanguage      = "Please select your preferred language:"
	textPayrollMenu   = "Please select your preferred option:"
	textReimbursement = "Please select from the following options for your Reimbursement claim:"
	textPF            = "Can you tell me what kind of details you need from your PF?"
	textPay           = "Can you tell me what kind of details you need from your payroll?"
	textAttendance    = "Can you tell me what is your employee id?"
	textTravel        = "The amount will be credited to your account."
	textPetrol        = "Could you please tell me the distance you traveled?"
	textDriver        = "The amount will be credited to the driver account."
	textThanks        = "Thanks for your reply. We will connect you soon."
	textDefault       = "Please hold on while our staff assist you."
	textGoodbye       = "Thank you for contacting us. We will be glad to assist you in future as well."
)

var greetMenu = []dialogue.Button{
	{Title: "PF", Payload: PayloadPF},
	{Title: "Payroll & Attendance", Payload: PayloadPayrollAtt},
	{Title: "Reimbursement", Payload: PayloadReimbursement},
	{Title: "Language Options", Payload: PayloadLanguageOpt},
	{Title: "Exit", Payload: PayloadGoodbye},
}

// Payloads are the codes the host stores in the language slot.
var languageMenu = []dialogue.Button{
	{Title: "English", Payload: "en"},
	{Title: "Malayalam", Payload: "ml"},
	{Title: "Hindi", Payload: "hi"},
	{Title: "Tamil", Payload: "ta"},
	{Title: "Telugu", Payload: "te"},
	{Title: "Kannada", Payload: "kn"},
	{Title: "Marathi", Payload: "mr"},
}

var payrollMenu = []dialogue.Button{
	{Title: "Payroll", Payload: PayloadPayroll},
	{Title: "Attendance", Payload: PayloadAttendance},
}

var reimbursementMenu = []dialogue.Button{
	{Title: "Travel allowance", Payload: PayloadTravel},
	{Title: "Driver's salary", Payload: PayloadDriver},
	{Title: "Petrol allowance", Payload: PayloadPetrol},
}

// SupportedLanguages returns the language menu in display order.
func SupportedLanguages() []dialogue.Button {
	return append([]dialogue.Button(nil), languageMenu...)
}

// IsSupportedLanguage reports whether code appears in the language menu.
func IsSupportedLanguage(code string) bool {
	for _, b := range languageMenu {
		if b.Payload == code {
			return true
		}
	}
	return false
}

// PayloadRoutes maps every menu payload to the action that answers it.
// Language codes are absent: the host applies them itself.
func PayloadRoutes() map[string]string {
	return map[string]string{
		PayloadPF:            PF,
		PayloadPayrollAtt:    PayrollMenu,
		PayloadReimbursement: ReimbursementMenu,
		PayloadLanguageOpt:   Language,
		PayloadGoodbye:       Goodbye,
		PayloadPayroll:       Pay,
		PayloadAttendance:    Attendance,
		PayloadTravel:        TravelAllowance,
		PayloadDriver:        DriverSalary,
		PayloadPetrol:        PetrolAllowance,
	}
}
