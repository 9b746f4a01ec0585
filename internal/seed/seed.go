// Package seed loads the starter event catalog into an empty database.
package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/models"
)

// Result reports what a seed run did.
type Result struct {
	Skipped bool
	Count   int
}

// Run inserts the starter catalog unless the database already has events.
// Every seeded event starts with all seats available.
func Run(ctx context.Context, svc *events.Service, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count events: %w", err)
	}
	if stats.Events > 0 {
		logger.Info("database already contains events, skipping seed", zap.Int("count", stats.Events))
		return Result{Skipped: true, Count: stats.Events}, nil
	}

	catalog := Catalog()
	for i := range catalog {
		if err := svc.Create(ctx, &catalog[i]); err != nil {
			return Result{}, fmt.Errorf("seed %q: %w", catalog[i].Name, err)
		}
	}
	logger.Info("seeded events", zap.Int("count", len(catalog)))
	return Result{Count: len(catalog)}, nil
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// Catalog returns the starter events.
func Catalog() []models.Event {
	return []models.Event{
		{
			Name:        "AI & Machine Learning Summit 2026",
			Organizer:   "Tech Innovators Inc",
			Location:    "San Francisco, CA",
			Date:        at("2026-03-15 09:00"),
			Description: "Explore the latest advancements in artificial intelligence and machine learning. Join industry leaders for keynotes, workshops, and networking.",
			Capacity:    500,
			Category:    "Technology",
			Tags:        []string{"AI", "Machine Learning", "Tech", "Innovation"},
		},
		{
			Name:        "Web Development Bootcamp",
			Organizer:   "CodeMasters Academy",
			Location:    "Austin, TX",
			Date:        at("2026-04-20 10:00"),
			Description: "Intensive 3-day bootcamp covering React, Node.js, and modern web development practices. Hands-on coding sessions included.",
			Capacity:    150,
			Category:    "Workshop",
			Tags:        []string{"Web Dev", "React", "Node.js", "Coding"},
		},
		{
			Name:        "Cybersecurity Conference 2026",
			Organizer:   "SecureNet Global",
			Location:    "New York, NY",
			Date:        at("2026-05-10 08:30"),
			Description: "Annual conference focused on emerging cybersecurity threats, defense strategies, and compliance regulations.",
			Capacity:    800,
			Category:    "Technology",
			Tags:        []string{"Cybersecurity", "Privacy", "Enterprise", "Security"},
		},
		{
			Name:        "Startup Pitch Night",
			Organizer:   "Venture Connect",
			Location:    "Seattle, WA",
			Date:        at("2026-03-25 18:00"),
			Description: "Watch innovative startups pitch to angel investors and VCs. Networking session follows with refreshments.",
			Capacity:    200,
			Category:    "Networking",
			Tags:        []string{"Startup", "Investing", "Entrepreneurship", "Pitching"},
		},
		{
			Name:        "Leadership Summit for Women",
			Organizer:   "Empower Leaders",
			Location:    "Chicago, IL",
			Date:        at("2026-06-05 09:00"),
			Description: "Empowering women in leadership roles through workshops, panel discussions, and mentorship opportunities.",
			Capacity:    300,
			Category:    "Conference",
			Tags:        []string{"Leadership", "Women", "Career", "Professional Development"},
		},
		{
			Name:        "Digital Marketing Masterclass",
			Organizer:   "Growth Hackers Co",
			Location:    "Los Angeles, CA",
			Date:        at("2026-04-15 13:00"),
			Description: "Learn SEO, content marketing, social media strategies, and analytics from industry experts.",
			Capacity:    120,
			Category:    "Workshop",
			Tags:        []string{"Marketing", "SEO", "Social Media", "Business"},
		},
		{
			Name:        "Jazz Under the Stars",
			Organizer:   "City Arts Foundation",
			Location:    "New Orleans, LA",
			Date:        at("2026-07-12 19:00"),
			Description: "Outdoor jazz concert featuring renowned musicians. Bring your blanket and enjoy an evening of smooth jazz.",
			Capacity:    1000,
			Category:    "Music",
			Tags:        []string{"Jazz", "Music", "Outdoor", "Concert"},
		},
		{
			Name:        "Modern Art Exhibition Opening",
			Organizer:   "Metropolitan Gallery",
			Location:    "Boston, MA",
			Date:        at("2026-05-20 17:00"),
			Description: "Opening night for our contemporary art exhibition featuring emerging artists. Wine and hors d'oeuvres served.",
			Capacity:    250,
			Category:    "Arts",
			Tags:        []string{"Art", "Exhibition", "Culture", "Gallery"},
		},
		{
			Name:        "Photography Workshop: Landscape Basics",
			Organizer:   "Lens & Light Studio",
			Location:    "Denver, CO",
			Date:        at("2026-06-18 08:00"),
			Description: "Full-day outdoor photography workshop in the Rocky Mountains. Learn composition, lighting, and post-processing.",
			Capacity:    30,
			Category:    "Workshop",
			Tags:        []string{"Photography", "Outdoors", "Creative", "Nature"},
		},
		{
			Name:        "Yoga & Meditation Retreat",
			Organizer:   "Peaceful Mind Wellness",
			Location:    "Sedona, AZ",
			Date:        at("2026-08-10 07:00"),
			Description: "Weekend retreat focused on mindfulness, yoga practice, and holistic wellness. All skill levels welcome.",
			Capacity:    50,
			Category:    "Wellness",
			Tags:        []string{"Yoga", "Meditation", "Wellness", "Retreat"},
		},
		{
			Name:        "Marathon Training Camp",
			Organizer:   "City Runners Club",
			Location:    "Portland, OR",
			Date:        at("2026-09-01 06:00"),
			Description: "Intensive training program for marathon preparation. Includes nutrition guidance and injury prevention workshops.",
			Capacity:    100,
			Category:    "Sports",
			Tags:        []string{"Running", "Marathon", "Fitness", "Training"},
		},
		{
			Name:        "Science Fair for Young Innovators",
			Organizer:   "STEM Education Foundation",
			Location:    "Philadelphia, PA",
			Date:        at("2026-10-15 10:00"),
			Description: "Annual science fair showcasing projects from students grades 6-12. Awards and scholarships available.",
			Capacity:    500,
			Category:    "Education",
			Tags:        []string{"Science", "Education", "STEM", "Youth"},
		},
		{
			Name:        "Creative Writing Workshop",
			Organizer:   "Writers' Guild",
			Location:    "Minneapolis, MN",
			Date:        at("2026-07-22 14:00"),
			Description: "Interactive workshop on storytelling, character development, and publishing. Suitable for beginners and experienced writers.",
			Capacity:    40,
			Category:    "Workshop",
			Tags:        []string{"Writing", "Creative", "Literature", "Publishing"},
		},
		{
			Name:        "Craft Beer Festival",
			Organizer:   "Brewmasters Alliance",
			Location:    "San Diego, CA",
			Date:        at("2026-09-20 12:00"),
			Description: "Sample craft beers from over 50 local and national breweries. Food trucks and live music included.",
			Capacity:    2000,
			Category:    "Food & Drink",
			Tags:        []string{"Beer", "Festival", "Food", "Entertainment"},
		},
		{
			Name:        "Farm-to-Table Cooking Class",
			Organizer:   "Culinary Arts Institute",
			Location:    "Nashville, TN",
			Date:        at("2026-08-05 16:00"),
			Description: "Learn to prepare seasonal dishes using locally sourced ingredients. Dinner included.",
			Capacity:    25,
			Category:    "Workshop",
			Tags:        []string{"Cooking", "Food", "Culinary", "Sustainable"},
		},
		{
			Name:        "New Year Tech Expo 2026",
			Organizer:   "Innovation Hub",
			Location:    "Las Vegas, NV",
			Date:        at("2026-01-10 09:00"),
			Description: "Kick off the year with the latest tech gadgets, demos, and product launches.",
			Capacity:    1500,
			Category:    "Technology",
			Tags:        []string{"Tech", "Expo", "Gadgets", "Innovation"},
		},
		{
			Name:        "Winter Music Festival",
			Organizer:   "Sound Wave Productions",
			Location:    "Miami, FL",
			Date:        at("2026-02-01 15:00"),
			Description: "Three-day music festival featuring electronic, hip-hop, and indie artists.",
			Capacity:    5000,
			Category:    "Music",
			Tags:        []string{"Music", "Festival", "EDM", "Hip-Hop"},
		},
		{
			Name:        "Blockchain & Crypto Summit",
			Organizer:   "Decentralize Network",
			Location:    "Miami, FL",
			Date:        at("2026-11-08 10:00"),
			Description: "Deep dive into blockchain technology, cryptocurrency trends, and Web3 innovations.",
			Capacity:    300,
			Category:    "Technology",
			Tags:        []string{"Blockchain", "Crypto", "Web3", "Finance"},
		},
		{
			Name:        "Sustainable Living Workshop",
			Organizer:   "Green Future Initiative",
			Location:    "Portland, OR",
			Date:        at("2026-10-25 11:00"),
			Description: "Learn practical strategies for eco-friendly living, zero-waste practices, and sustainable home solutions.",
			Capacity:    60,
			Category:    "Workshop",
			Tags:        []string{"Sustainability", "Environment", "Green Living", "Eco-Friendly"},
		},
		{
			Name:        "Data Science & Analytics Conference",
			Organizer:   "DataMinds Collective",
			Location:    "San Francisco, CA",
			Date:        at("2026-12-03 09:00"),
			Description: "Explore data visualization, predictive analytics, and big data solutions. Workshops and case studies included.",
			Capacity:    400,
			Category:    "Technology",
			Tags:        []string{"Data Science", "Analytics", "Big Data", "AI"},
		},
	}
}
