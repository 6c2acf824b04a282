package bot

import (
	"strings"

	"go-media-bot/downloader"
)

// Known hostnames per service. Matching is plain substring containment, so
// text that merely mentions a domain is accepted.
var serviceHosts = []struct {
	service downloader.Service
	hosts   []string
}{
	{downloader.ServiceYouTube, []string{"youtube.com", "www.youtube.com", "youtu.be", "www.youtu.be", "m.youtube.com"}},
	{downloader.ServiceVK, []string{"vk.com", "m.vk.com", "vkontakte.ru", "m.vkontakte.ru"}},
	{downloader.ServiceTikTok, []string{"tiktok.com", "www.tiktok.com", "vm.tiktok.com", "m.tiktok.com"}},
}

// Coarse keywords that route a message to a service's link flow before the
// host predicate is applied
var serviceTriggers = []struct {
	service  downloader.Service
	keywords []string
}{
	{downloader.ServiceYouTube, []string{"youtube", "youtu.be"}},
	{downloader.ServiceVK, []string{"vk.com", "vkontakte.ru"}},
	{downloader.ServiceTikTok, []string{"tiktok.com", "vm.tiktok.com"}},
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func hostsFor(service downloader.Service) []string {
	for _, entry := range serviceHosts {
		if entry.service == service {
			return entry.hosts
		}
	}
	return nil
}

// IsYouTubeURL reports whether text contains a YouTube hostname
func IsYouTubeURL(text string) bool {
	return containsAny(text, hostsFor(downloader.ServiceYouTube))
}

// IsVKURL reports whether text contains a VK hostname
func IsVKURL(text string) bool {
	return containsAny(text, hostsFor(downloader.ServiceVK))
}

// IsTikTokURL reports whether text contains a TikTok hostname
func IsTikTokURL(text string) bool {
	return containsAny(text, hostsFor(downloader.ServiceTikTok))
}

// MatchesService reports whether text contains one of the service's hostnames
func MatchesService(text string, service downloader.Service) bool {
	return containsAny(text, hostsFor(service))
}

// ClassifyURL returns the first service whose hostnames appear in text, in
// the order youtube, vk, tiktok
func ClassifyURL(text string) downloader.Service {
	for _, entry := range serviceHosts {
		if containsAny(text, entry.hosts) {
			return entry.service
		}
	}
	return downloader.ServiceUnknown
}

// MatchingServices returns every service whose hostnames appear in text.
// More than one result means the text is ambiguous.
func MatchingServices(text string) []downloader.Service {
	var services []downloader.Service
	for _, entry := range serviceHosts {
		if containsAny(text, entry.hosts) {
			services = append(services, entry.service)
		}
	}
	return services
}

// TriggeredService returns the service whose coarse keyword appears in text.
// It is checked before the host predicates, so a trigger without a matching
// host means the link is invalid for that service.
func TriggeredService(text string) downloader.Service {
	for _, entry := range serviceTriggers {
		if containsAny(text, entry.keywords) {
			return entry.service
		}
	}
	return downloader.ServiceUnknown
}
