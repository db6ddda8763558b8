package editor

// DefaultStages returns the built-in quiz funnel used when no saved state or
// remote content exists: intro, two style questions, a transition, the
// result page, and the offer page.
func DefaultStages() []Stage {
	return []Stage{
		{
			ID:    "stage-intro",
			Name:  "Welcome",
			Type:  StageIntro,
			Order: 0,
			Settings: map[string]any{
				"show_progress_bar": false,
			},
			Components: []Component{
				{
					ID:   "cmp-intro-hero",
					Type: "hero",
					Content: map[string]any{
						"title":    "Discover Your Personal Style",
						"subtitle": "Answer a few questions and get a style guide made for you.",
						"image":    "/images/hero-intro.webp",
					},
				},
				{
					ID:   "cmp-intro-name",
					Type: "input",
					Content: map[string]any{
						"label":       "What's your first name?",
						"placeholder": "Your name",
						"required":    true,
					},
				},
				{
					ID:   "cmp-intro-start",
					Type: "button",
					Content: map[string]any{
						"label":  "Start the quiz",
						"action": "next-stage",
					},
					Style: map[string]any{
						"variant": "primary",
						"size":    "lg",
					},
				},
			},
		},
		{
			ID:    "stage-q1",
			Name:  "Question 1",
			Type:  StageQuestion,
			Order: 1,
			Settings: map[string]any{
				"show_progress_bar": true,
				"multi_select":      3,
			},
			Components: []Component{
				{
					ID:   "cmp-q1-heading",
					Type: "heading",
					Content: map[string]any{
						"text": "Which outfit would you wear on a normal day?",
					},
				},
				{
					ID:   "cmp-q1-options",
					Type: "options-grid",
					Content: map[string]any{
						"columns": 2,
						"options": []any{
							map[string]any{"id": "q1-natural", "text": "Comfort and practicality", "style": "natural"},
							map[string]any{"id": "q1-classic", "text": "Discreet, classic pieces", "style": "classic"},
							map[string]any{"id": "q1-elegant", "text": "Tailored, refined looks", "style": "elegant"},
							map[string]any{"id": "q1-creative", "text": "Bold mixes and prints", "style": "creative"},
						},
					},
				},
			},
		},
		{
			ID:    "stage-q2",
			Name:  "Question 2",
			Type:  StageQuestion,
			Order: 2,
			Settings: map[string]any{
				"show_progress_bar": true,
				"multi_select":      3,
			},
			Components: []Component{
				{
					ID:   "cmp-q2-heading",
					Type: "heading",
					Content: map[string]any{
						"text": "Which detail catches your eye first?",
					},
				},
				{
					ID:   "cmp-q2-options",
					Type: "options-grid",
					Content: map[string]any{
						"columns": 2,
						"options": []any{
							map[string]any{"id": "q2-natural", "text": "Soft, natural fabrics", "style": "natural"},
							map[string]any{"id": "q2-classic", "text": "Clean, timeless cuts", "style": "classic"},
							map[string]any{"id": "q2-elegant", "text": "Polished finishes", "style": "elegant"},
							map[string]any{"id": "q2-creative", "text": "Unexpected color pairings", "style": "creative"},
						},
					},
				},
			},
		},
		{
			ID:    "stage-transition",
			Name:  "Calculating",
			Type:  StageTransition,
			Order: 3,
			Settings: map[string]any{
				"auto_advance_ms": 3000,
			},
			Components: []Component{
				{
					ID:   "cmp-transition-text",
					Type: "text",
					Content: map[string]any{
						"text": "Analyzing your answers...",
					},
				},
			},
		},
		{
			ID:    "stage-result",
			Name:  "Your Result",
			Type:  StageResult,
			Order: 4,
			Components: []Component{
				{
					ID:   "cmp-result-card",
					Type: "result-card",
					Content: map[string]any{
						"title_template": "Your predominant style: {{category}}",
						"show_secondary": true,
					},
				},
				{
					ID:   "cmp-result-testimonial",
					Type: "testimonial",
					Content: map[string]any{
						"quote":  "The guide completely changed how I shop.",
						"author": "Mariana S.",
					},
				},
			},
		},
		{
			ID:    "stage-offer",
			Name:  "Style Guide Offer",
			Type:  StageOffer,
			Order: 5,
			Components: []Component{
				{
					ID:   "cmp-offer-pricing",
					Type: "pricing",
					Content: map[string]any{
						"product":        "Complete Style Guide",
						"price":          39.0,
						"original_price": 175.0,
						"currency":       "BRL",
						"installments":   4,
					},
				},
				{
					ID:   "cmp-offer-cta",
					Type: "button",
					Content: map[string]any{
						"label":  "Get my guide",
						"action": "checkout",
					},
					Style: map[string]any{
						"variant": "primary",
						"size":    "lg",
					},
				},
			},
		},
	}
}
