package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lush-moments/backend/internal/models"
	"lush-moments/backend/pkg/cache"
	"lush-moments/backend/pkg/logger"
	sharedredis "lush-moments/backend/shared/redis"

	"gorm.io/gorm"
)

// lookupFailure is what a tool returns when the database is unwell.
// Tools never surface errors to the model or the user.
const lookupFailure = "I'm having trouble looking that up right now. Please try again in a moment or ask to speak with a human agent."

const catalogCacheTTL = 5 * time.Minute

// CatalogService renders business data (packages, themes, FAQs,
// enhancements, testimonials, gallery) as plain text for the agent's
// lookup tools. All reads are side-effect free. Whole-catalog listings
// are cached in-process and, when Redis is configured, shared across
// instances.
type CatalogService struct {
	db    *gorm.DB
	cache *cache.Cache
	redis *sharedredis.RedisClient
	log   *logger.Logger
}

// NewCatalogService creates a catalog service. redis may be nil.
func NewCatalogService(db *gorm.DB, c *cache.Cache, r *sharedredis.RedisClient, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, cache: c, redis: r, log: log}
}

// cached runs render through the two cache layers keyed by key.
func (s *CatalogService) cached(key string, render func() (string, error)) string {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if text, ok := v.(string); ok {
				return text
			}
		}
	}
	if s.redis != nil {
		if text, err := s.redis.Get(key); err == nil && text != "" {
			if s.cache != nil {
				s.cache.SetWithExpiration(key, text, catalogCacheTTL)
			}
			return text
		}
	}

	text, err := render()
	if err != nil {
		s.log.LogError(err, "Catalog lookup failed", "key", key)
		return lookupFailure
	}

	if s.cache != nil {
		s.cache.SetWithExpiration(key, text, catalogCacheTTL)
	}
	if s.redis != nil {
		if err := s.redis.Set(key, text, catalogCacheTTL); err != nil {
			s.log.Warn("Failed to store catalog text in redis", "key", key, "error", err.Error())
		}
	}
	return text
}

// PackagesInfo lists every package with price and description.
func (s *CatalogService) PackagesInfo(ctx context.Context) string {
	return s.cached("catalog:packages", func() (string, error) {
		var packages []models.Package
		if err := s.db.WithContext(ctx).Order("display_order ASC, price ASC").Find(&packages).Error; err != nil {
			return "", err
		}
		if len(packages) == 0 {
			return "No packages are currently available.", nil
		}

		var b strings.Builder
		b.WriteString("Available Event Decoration Packages:\n\n")
		for _, pkg := range packages {
			fmt.Fprintf(&b, "**%s** - $%.0f\n", pkg.Title, pkg.Price)
			if pkg.Description != "" {
				b.WriteString(pkg.Description + "\n")
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	})
}

// PackageByName finds packages whose title matches the query,
// including their line items.
func (s *CatalogService) PackageByName(ctx context.Context, name string) string {
	var packages []models.Package
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(name)+"%").
		Find(&packages).Error
	if err != nil {
		s.log.LogError(err, "Package lookup failed", "name", name)
		return lookupFailure
	}

	if len(packages) == 0 {
		return fmt.Sprintf("I couldn't find a package matching '%s'. Let me show you all available packages instead.", name)
	}

	if len(packages) == 1 {
		pkg := packages[0]
		var b strings.Builder
		fmt.Fprintf(&b, "**%s** - $%.0f\n\n", pkg.Title, pkg.Price)
		if pkg.Description != "" {
			b.WriteString(pkg.Description + "\n\n")
		}
		if len(pkg.Items) > 0 {
			b.WriteString("**What's Included:**\n")
			for _, item := range pkg.Items {
				b.WriteString("- " + item.ItemText + "\n")
			}
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found multiple packages matching '%s':\n\n", name)
	for _, pkg := range packages {
		fmt.Fprintf(&b, "**%s** - $%.0f\n", pkg.Title, pkg.Price)
		if pkg.Description != "" {
			b.WriteString(pkg.Description + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// PackagesWithinBudget lists packages at or under maxPrice, recommends
// the best value, and mentions the next tier above budget if any.
func (s *CatalogService) PackagesWithinBudget(ctx context.Context, maxPrice float64) string {
	var all []models.Package
	if err := s.db.WithContext(ctx).Order("price ASC").Find(&all).Error; err != nil {
		s.log.LogError(err, "Package budget lookup failed")
		return lookupFailure
	}

	var within, above []models.Package
	for _, pkg := range all {
		if pkg.Price <= maxPrice {
			within = append(within, pkg)
		} else {
			above = append(above, pkg)
		}
	}

	if len(within) == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Unfortunately, we don't have any packages within $%.0f.\n\n", maxPrice)
		if len(all) > 0 {
			cheapest := all[0]
			fmt.Fprintf(&b, "Our most affordable option is the **%s** at $%.0f.\n", cheapest.Title, cheapest.Price)
			if cheapest.Description != "" {
				b.WriteString(cheapest.Description + "\n")
			}
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Packages within your $%.0f budget:**\n\n", maxPrice)
	for _, pkg := range within {
		fmt.Fprintf(&b, "**%s** - $%.0f\n", pkg.Title, pkg.Price)
		if pkg.Description != "" {
			b.WriteString(pkg.Description + "\n")
		}
		b.WriteString("\n")
	}

	best := within[len(within)-1]
	fmt.Fprintf(&b, "**Recommended:** The **%s** at $%.0f offers the best value within your budget.\n\n", best.Title, best.Price)

	if len(above) > 0 {
		next := above[0]
		fmt.Fprintf(&b, "For $%.0f, you could upgrade to the **%s** ($%.0f over budget).\n\n", next.Price, next.Title, next.Price-maxPrice)
	}

	b.WriteString("Would you like more details about any of these packages?")
	return b.String()
}

// ThemesInfo lists every decoration theme.
func (s *CatalogService) ThemesInfo(ctx context.Context) string {
	return s.cached("catalog:themes", func() (string, error) {
		var themes []models.Theme
		if err := s.db.WithContext(ctx).Order("name ASC").Find(&themes).Error; err != nil {
			return "", err
		}
		if len(themes) == 0 {
			return "No themes are currently available.", nil
		}

		var b strings.Builder
		b.WriteString("Available Decoration Themes:\n\n")
		for _, theme := range themes {
			fmt.Fprintf(&b, "**%s**\n%s\n\n", theme.Name, theme.Description)
		}
		return b.String(), nil
	})
}

// ThemeByName finds themes whose name matches the query.
func (s *CatalogService) ThemeByName(ctx context.Context, name string) string {
	var themes []models.Theme
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%").
		Find(&themes).Error
	if err != nil {
		s.log.LogError(err, "Theme lookup failed", "name", name)
		return lookupFailure
	}

	if len(themes) == 0 {
		return fmt.Sprintf("I couldn't find a theme matching '%s'. Let me show you all available themes instead.", name)
	}

	if len(themes) == 1 {
		theme := themes[0]
		var b strings.Builder
		fmt.Fprintf(&b, "**%s**\n\n", theme.Name)
		if theme.Description != "" {
			b.WriteString(theme.Description + "\n\n")
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found multiple themes matching '%s':\n\n", name)
	for _, theme := range themes {
		fmt.Fprintf(&b, "**%s**\n%s\n\n", theme.Name, theme.Description)
	}
	return b.String()
}

// EnhancementsInfo lists available add-ons grouped in display order.
func (s *CatalogService) EnhancementsInfo(ctx context.Context) string {
	return s.cached("catalog:enhancements", func() (string, error) {
		var enhancements []models.PackageEnhancement
		err := s.db.WithContext(ctx).
			Where("is_available = ?", true).
			Order("display_order ASC").
			Find(&enhancements).Error
		if err != nil {
			return "", err
		}
		if len(enhancements) == 0 {
			return "No enhancements are currently available.", nil
		}

		var b strings.Builder
		b.WriteString("Available Package Enhancements:\n\n")
		for _, e := range enhancements {
			fmt.Fprintf(&b, "**%s** - starting at $%.0f\n%s\n", e.Name, e.StartingPrice, e.Description)
			if e.Category != "" {
				fmt.Fprintf(&b, "Category: %s\n", e.Category)
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	})
}

// GalleryItems shows recent portfolio entries.
func (s *CatalogService) GalleryItems(ctx context.Context, limit int) string {
	var items []models.GalleryItem
	err := s.db.WithContext(ctx).
		Order("display_order ASC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		s.log.LogError(err, "Gallery lookup failed")
		return lookupFailure
	}
	if len(items) == 0 {
		return "No gallery items are currently available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent Event Decoration Examples (showing %d):\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "**%s**\n%s\n", item.Title, item.Description)
		if item.Category != "" {
			fmt.Fprintf(&b, "Category: %s\n", item.Category)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Testimonials shows customer reviews.
func (s *CatalogService) Testimonials(ctx context.Context, limit int) string {
	var testimonials []models.Testimonial
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&testimonials).Error
	if err != nil {
		s.log.LogError(err, "Testimonial lookup failed")
		return lookupFailure
	}
	if len(testimonials) == 0 {
		return "No testimonials are currently available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer Testimonials (showing %d):\n\n", len(testimonials))
	for _, t := range testimonials {
		fmt.Fprintf(&b, "**%s**", t.Name)
		if t.EventType != "" {
			fmt.Fprintf(&b, " - %s", t.EventType)
		}
		fmt.Fprintf(&b, "\n\"%s\"\nRating: %.1f/5\n\n", t.Message, t.Rating)
	}
	return b.String()
}

// BookingInfo explains the booking process. The copy is fixed; there
// is no booking table to read for this.
func (s *CatalogService) BookingInfo(ctx context.Context) string {
	return `**How to Book with Lush Moments:**

1. **Browse Packages**: Choose from our Essential, Deluxe, or Signature packages
2. **Select Theme**: Pick a theme that matches your event style
3. **Fill Booking Form**: Provide event details (date, venue, guest count)
4. **Consultation**: We'll schedule a free consultation to discuss your vision
5. **Confirmation**: Receive a detailed quote and confirm your booking

**Booking Timeline:**
- We recommend booking 4-6 weeks in advance for best availability
- Rush bookings (less than 2 weeks) may be available with limited options
- Peak seasons (holidays, summer) book up quickly

You can book directly through our website's booking page or request to speak with a human agent for personalized assistance.`
}

// SearchFAQ matches active FAQ entries against questions and answers.
func (s *CatalogService) SearchFAQ(ctx context.Context, query string) string {
	pattern := "%" + strings.ToLower(query) + "%"
	var faqs []models.FAQ
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(question) LIKE ? OR LOWER(answer) LIKE ?", pattern, pattern).
		Order("display_order ASC").
		Limit(5).
		Find(&faqs).Error
	if err != nil {
		s.log.LogError(err, "FAQ search failed", "query", query)
		return lookupFailure
	}

	if len(faqs) == 0 {
		return `For specific questions not covered in our FAQ, I recommend:

1. Requesting to speak with a human agent for personalized assistance
2. Visiting our website for detailed information
3. Contacting us directly via phone or email`
	}

	var b strings.Builder
	b.WriteString("Here are the answers to your questions:\n\n")
	for _, faq := range faqs {
		fmt.Fprintf(&b, "**Q: %s**\nA: %s\n\n", faq.Question, faq.Answer)
	}
	return b.String()
}
