package services

import (
	"fmt"
	"strings"

	"vikas-assistant-backend/models"
)

// ClosingLine ends every reply the assistant sends.
const ClosingLine = "धन्यवाद! 🙏 Aapka apna VIKAS CSC – Vikas ke sath aapke vikas ki baat."

const emptyInputPrompt = "Kripya apna prashn likhiye ya batayein ki kis seva ke liye madad chahiye."

// ReplyScript is the fixed content for one intent. Remark is optional.
type ReplyScript struct {
	Intro  string
	Steps  []string
	Remark string
}

var replyScripts = map[models.MessageIntent]ReplyScript{
	models.IntentPension: {
		Intro: "Pension ya Life Certificate process bahut aasaan hai. Aap yeh kadam follow kijiye:",
		Steps: []string{
			"Apna Aadhaar, PPO number aur mobile number ready rakhiye.",
			"Hamare VIKAS CSC par aakar biometric verification karaiye ya doorstep seva schedule kijiye.",
			"Verification ke turant baad hum DLC / Sparsh portal par certificate submit kar dete hain.",
			"Aapko acknowledgement slip aur SMS confirmation wahi par mil jaayega.",
		},
		Remark: "Saath hi, agar aap Samman Card ya medical sahayata chahte hain to hum turant arrange kar sakte hain.",
	},
	models.IntentSamman: {
		Intro: "Samman / Sambhal Card banwane ke liye yeh saral process follow kijiye:",
		Steps: []string{
			"Valid ID proof (Aadhaar / Pan) aur recent photo le aayiye.",
			"Hamare center par application form fill kijiye; hum aapko har column samjha denge.",
			"Document verification ke baad hum card request submit kar dete hain.",
			"Card ready hote hi aapko SMS / call se update mil jaayega, aap pickup ya home delivery choose kar sakte hain.",
		},
		Remark: "Hum senior citizens, veterans aur patients ke liye priority service dete hain. Banking, pension aur bill payment ki madad bhi ek hi visit mein mil jaayegi.",
	},
	models.IntentBanking: {
		Intro: "Banking aur financial seva ke liye hamari trained team aapki madad karegi:",
		Steps: []string{
			"Aap kaunsa kaam (account opening, withdrawal, mini statement, loan enquiry) chahte hain wo batayein.",
			"Valid ID proof aur passbook/cancelled cheque saath laayein.",
			"Hamare CSC terminal par transaction ko secure tarike se process kiya jaata hai.",
			"Transaction slip aur SMS confirmation turant milti hai. Kisi bhi samay helpdesk se status check kar sakte hain.",
		},
		Remark: "Hum PM Jan Dhan, Pension aur DBT related support bhi dete hain. Zaroorat ho to Aadhaar update aur bill payment bhi turant ho jaata hai.",
	},
	models.IntentAadhaar: {
		Intro: "Aadhaar seva ke liye yeh kadam rakhein:",
		Steps: []string{
			"Appointment slot book karna ho to hum phone ya WhatsApp par confirm kar dete hain.",
			"Original Aadhaar, ID proof aur agar correction hai to supporting document saath laayein.",
			"Biometric ya demographic update ko UIDAI portal par turant submit kiya jaata hai.",
			"Update request number (URN) aapko milta hai jisse status track kar sakte hain.",
		},
		Remark: "Iske saath PAN linking, bank seeding aur mobile update bhi hum manage karte hain.",
	},
	models.IntentPAN: {
		Intro: "PAN related request ke liye simple process follow hota hai:",
		Steps: []string{
			"New PAN ya correction decide kijiye; hum dono forms ke liye guide karte hain.",
			"Aadhaar, photo aur signature sample ready rakhiye.",
			"NSDL / UTI portal par application submit karke acknowledgement print turant milta hai.",
			"Card dispatch status hum aapko SMS / call se update karte rahenge.",
		},
		Remark: "Saath hi, hum Aadhaar-PAN link aur income tax e-filing ke liye bhi sahayata dete hain.",
	},
	models.IntentPassport: {
		Intro: "Passport service ke liye hum end-to-end guidance dete hain:",
		Steps: []string{
			"Fresh passport ya renewal ke liye required documents list hum turant share kar dete hain.",
			"PSK appointment booking aur form filling hamare counter par hoti hai.",
			"Fee payment aur slot confirmation receipt aapko instant mil jaati hai.",
			"Application status track karne aur police verification tips hum step-by-step batate hain.",
		},
		Remark: "Travel insurance, PAN aur bill payment jaise add-on services bhi available hain.",
	},
	models.IntentPMSchemes: {
		Intro: "Pradhan Mantri yojana ya kisi sarkari scheme ke liye hum practical help dete hain:",
		Steps: []string{
			"Aap kis scheme mein interested hain (Mudra, PM Kisan, PMSYM, PMAY, etc.) ye batayein.",
			"Eligibility check aur required documents list hum turant nikal dete hain.",
			"Online registration, document upload aur follow-up submission hamare CSC se hota hai.",
			"Approval ya subsidy status hum regular interval par track karke aapko update dete hain.",
		},
		Remark: "Iske alawa pension, bill payment aur insurance seva bhi ek hi counter par uplabdh hai.",
	},
	models.IntentBills: {
		Intro: "Bill payment aur recharge ke liye aapko bas consumer details deni hoti hai:",
		Steps: []string{
			"Service type batayein (bijli, pani, gas, mobile, DTH ya FASTag).",
			"Consumer number ya registered mobile saath laayein.",
			"Payment CSC secure gateway se process hota hai, receipt turant milti hai.",
			"Auto-reminder chahiye to hum WhatsApp / SMS alert set kar dete hain.",
		},
		Remark: "Aap ek hi visit mein Aadhaar update, banking aur pension seva bhi utilize kar sakte hain.",
	},
	models.IntentGeneric: {
		Intro: "Main aapki madad ke liye tayyar hoon. Kripya batayein ki kis seva ya document ke liye guidance chahiye?",
	},
}

// ScriptFor returns the script for intent, or the generic script for anything unmapped.
func ScriptFor(intent models.MessageIntent) ReplyScript {
	if script, ok := replyScripts[intent]; ok {
		return script
	}
	return replyScripts[models.IntentGeneric]
}

// Greeting builds the first line of every reply.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Namaste,"
	}
	return fmt.Sprintf("Namaste %s ji,", name)
}

// Compose renders the reply for a classified, non-empty message.
func Compose(intent models.MessageIntent, name string) string {
	script := ScriptFor(intent)

	lines := make([]string, 0, len(script.Steps)+4)
	lines = append(lines, Greeting(name), script.Intro)
	lines = append(lines, formatSteps(script.Steps)...)
	if script.Remark != "" {
		lines = append(lines, script.Remark)
	}
	lines = append(lines, ClosingLine)

	return strings.Join(lines, "\n")
}

// ComposeEmptyPrompt renders the reply for a blank message.
func ComposeEmptyPrompt(name string) string {
	return strings.Join([]string{Greeting(name), emptyInputPrompt, ClosingLine}, "\n")
}

func formatSteps(steps []string) []string {
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = fmt.Sprintf("%d. %s", i+1, step)
	}
	return out
}
