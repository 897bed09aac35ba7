package models

import "strings"

type Service struct {
	ServiceID int    `json:"serviceId"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ShortCode string `json:"shortCode"`
}

// Desk services of the education-department front office. The short code is
// the ticket prefix printed on the public display.
var services = []Service{
	{ServiceID: 1, Code: "ptk", Name: "Layanan PTK", ShortCode: "PTK"},
	{ServiceID: 2, Code: "sd", Name: "Layanan SD", ShortCode: "SD"},
	{ServiceID: 3, Code: "smp", Name: "Layanan SMP", ShortCode: "SMP"},
	{ServiceID: 4, Code: "paud", Name: "Layanan PAUD", ShortCode: "PAUD"},
}

func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

func ServiceByCode(code string) (Service, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, svc := range services {
		if svc.Code == code {
			return svc, true
		}
	}
	return Service{}, false
}

func ServiceByID(id int) (Service, bool) {
	for _, svc := range services {
		if svc.ServiceID == id {
			return svc, true
		}
	}
	return Service{}, false
}

// TicketPrefix resolves the queue-number prefix for a service. Services
// outside the fixed table fall back to the first three letters of the
// name, uppercased.
func TicketPrefix(svc Service) string {
	if svc.ShortCode != "" {
		return svc.ShortCode
	}
	name := strings.TrimSpace(svc.Name)
	if len(name) >= 3 {
		return strings.ToUpper(name[:3])
	}
	return strings.ToUpper(name)
}
