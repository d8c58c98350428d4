package persona

import (
	"fmt"
	"strings"
)

// StepPrompt returns the tone-specific question for a lead-capture step
// (1 = name, 2 = phone, 3 = email). A nil cfg uses the Professional copy.
func StepPrompt(cfg *Config, step int) string {
	tone := ToneProfessional
	company := "our company"
	if cfg != nil {
		tone = cfg.Tone
		company = cfg.CompanyName
	}

	var table map[string]string
	switch step {
	case 1:
		table = map[string]string{
			ToneProfessional: "To personalize your experience, please share your name.",
			ToneFriendly:     "Awesome! Could you share your name? 😊",
			ToneHumorous:     "Roll call 😄 What's your name?",
			ToneExpert:       fmt.Sprintf("For accurate records with %s, please provide your name.", company),
			ToneCaring:       "I'd love to address you properly 🤗 Please share your name.",
			ToneEnthusiastic: "Great! 🚀 What's your name?",
			ToneFormal:       "May I kindly request your name for our records?",
			ToneCasual:       "Hey! What's your name?",
		}
	case 2:
		table = map[string]string{
			ToneProfessional: "Thank you! Could you also share your phone number so I can reach you if needed?",
			ToneFriendly:     "Great! 😊 What's your phone number? I'd love to stay in touch!",
			ToneHumorous:     "Perfect! 😄 What's your phone number? Don't worry, I won't call you at 3 AM... probably!",
			ToneExpert:       fmt.Sprintf("Excellent. I'd also appreciate your phone number for important updates about %s.", company),
			ToneCaring:       "Wonderful! 🤗 What's your phone number? I want to make sure I can reach you when it matters.",
			ToneEnthusiastic: "Awesome! 🚀 What's your phone number? I'm so excited to have your contact details!",
			ToneFormal:       "Thank you. May I also request your telephone number for important communications?",
			ToneCasual:       "Cool! What's your phone number? I'll make sure to keep you updated!",
		}
	case 3:
		table = map[string]string{
			ToneProfessional: "Perfect! One last thing - could you share your email address so I can send you updates?",
			ToneFriendly:     "Great! 😊 Last question - what's your email address? I'd love to keep you updated!",
			ToneHumorous:     "Almost there! 😄 What's your email address? I promise not to spam you - only the good stuff!",
			ToneExpert:       fmt.Sprintf("Excellent. Finally, I'd appreciate your email address for detailed updates about %s.", company),
			ToneCaring:       "Wonderful! 🤗 One last thing - what's your email address? I want to make sure you get all the important updates.",
			ToneEnthusiastic: "Fantastic! 🚀 Last step - what's your email address? I can't wait to send you exciting updates!",
			ToneFormal:       "Thank you. Finally, may I request your email address for relevant communications?",
			ToneCasual:       "Awesome! Last thing - what's your email address? I'll make sure to keep you in the loop!",
		}
	default:
		return ""
	}

	if msg, ok := table[tone]; ok {
		return msg
	}
	return table[ToneProfessional]
}

// CompletionMessage returns the tone-specific confirmation sent once a lead
// has been captured and saved. phone and email may each be empty.
func CompletionMessage(cfg *Config, name, phone, email string) string {
	tone := ToneProfessional
	company := "our company"
	if cfg != nil {
		tone = cfg.Tone
		company = cfg.CompanyName
	}

	var bits []string
	if phone != "" {
		bits = append(bits, "Phone: "+phone)
	}
	if email != "" {
		bits = append(bits, "Email: "+email)
	}
	contact := "no contact details provided"
	if len(bits) > 0 {
		contact = strings.Join(bits, ", ")
	}

	followups := map[string]string{
		ToneFriendly:     "Anything else I can help you with? 😊",
		ToneHumorous:     "Anything else I can help you with before I power down? 😄",
		ToneExpert:       "Is there anything else I can assist you with?",
		ToneCaring:       "Is there anything else I can help you with? I'm here for you.",
		ToneEnthusiastic: "Anything else I can help you with? 🚀",
		ToneFormal:       "Is there anything else with which I may assist you?",
		ToneCasual:       "Need anything else?",
	}
	followup, ok := followups[tone]
	if !ok {
		followup = "Is there anything else I can help you with?"
	}

	responses := map[string]string{
		ToneProfessional: fmt.Sprintf("Thank you, %s! I've saved your contact information (%s). I'll make sure to reach out to you with relevant updates about %s. %s", name, contact, company, followup),
		ToneFriendly:     fmt.Sprintf("Awesome, %s! 😊 I've got your details saved (%s). I'll keep you in the loop about all the exciting things happening at %s! %s", name, contact, company, followup),
		ToneHumorous:     fmt.Sprintf("Perfect! Thanks %s! 😄 I've added you to our VIP list at %s (%s). %s", name, company, contact, followup),
		ToneExpert:       fmt.Sprintf("Excellent, %s. I've recorded your contact information (%s) and will ensure you receive the most relevant updates about %s. %s", name, contact, company, followup),
		ToneCaring:       fmt.Sprintf("Thank you so much, %s! 🤗 I've saved your information (%s) and will make sure to take good care of you with updates about %s. %s", name, contact, company, followup),
		ToneEnthusiastic: fmt.Sprintf("Fantastic, %s! 🚀 I'm so excited to have your contact info (%s)! You'll be the first to know about all the amazing things at %s! %s", name, contact, company, followup),
		ToneFormal:       fmt.Sprintf("Thank you, %s. I have recorded your contact information (%s) and will ensure you receive appropriate communications regarding %s. %s", name, contact, company, followup),
		ToneCasual:       fmt.Sprintf("Cool, %s! I've got your info saved (%s). I'll make sure to keep you updated about %s. %s", name, contact, company, followup),
	}

	if msg, ok := responses[tone]; ok {
		return msg
	}
	return responses[ToneProfessional]
}
