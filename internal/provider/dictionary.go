package provider

import "strings"

// Built-in dictionaries for terms the web sources answer poorly. Lookups
// are exact on the normalized query; a miss returns the empty string.

var philosophyDictionary = map[string]string{
	"three jewels": "The Three Jewels are the Buddha, the Dharma, and the Sangha, the three things a Buddhist takes refuge in.",
	"nirvana":      "Nirvana is the state of liberation from suffering and the cycle of rebirth, the ultimate goal of Buddhist practice.",
	"stoicism":     "Stoicism is a Hellenistic philosophy teaching that virtue is the only true good and that we should accept what lies outside our control.",
	"dharma":       "Dharma refers to the teachings of the Buddha, and more broadly to the cosmic law and order underlying right conduct.",
}

var generalDictionary = map[string]string{
	"ai":       "Artificial intelligence (AI) is the field of building systems able to learn from data and perform tasks that normally require human reasoning.",
	"internet": "The Internet is the global network connecting billions of devices, enabling them to exchange information.",
	"http":     "HTTP (Hypertext Transfer Protocol) is the request-response protocol web clients and servers use to exchange documents.",
}

// LookupPhilosophy returns the philosophy dictionary entry for the query.
func LookupPhilosophy(query string) string {
	return philosophyDictionary[normalizeTerm(query)]
}

// LookupGeneral returns the general dictionary entry for the query.
func LookupGeneral(query string) string {
	return generalDictionary[normalizeTerm(query)]
}

func normalizeTerm(query string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(query), "?!.")))
}
