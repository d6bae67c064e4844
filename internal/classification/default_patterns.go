package classification

import "github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"

// DefaultTaxonomy returns the built-in category tables. Order matters: the
// first category with a matching pattern wins.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Revenue: []model.CategoryPattern{
			{
				Category: "Sales Revenue",
				Patterns: []string{
					`\bsales?\b`,
					`\binvoice\b`,
					`\bpayment\s+received\b`,
					`\bpos\s+settlement\b`,
					`\b(razorpay|cashfree|stripe|paytm)\b.*\b(settlement|payout)\b`,
				},
			},
			{
				Category: "Consulting Income",
				Patterns: []string{`\bconsult(ing|ancy)?\b`, `\bprofessional\s+fees?\b`, `\badvisory\b`},
			},
			{
				Category: "Interest Income",
				Patterns: []string{`\binterest\b`, `\bint\.?\s*(cr|credit|pd|paid)\b`},
			},
			{
				Category: "Investment Income",
				Patterns: []string{`\bdividend\b`, `\bcapital\s+gains?\b`, `\bredemption\b`},
			},
			{
				Category: "Rental Income",
				Patterns: []string{`\brent(al)?\s+(received|income)\b`},
			},
			{
				Category: "Refunds & Reversals",
				Patterns: []string{`\brefund\b`, `\breversal\b`, `\bcash\s*back\b`},
			},
		},
		Expense: []model.CategoryPattern{
			{
				Category: "Salaries & Wages",
				Patterns: []string{`\bsalar(y|ies)\b`, `\bpayroll\b`, `\bwages?\b`, `\bstipend\b`},
			},
			{
				Category: "Rent & Lease",
				Patterns: []string{`\brent\b`, `\blease\b`},
			},
			{
				Category: "Utilities",
				Patterns: []string{
					`\belectricity\b`,
					`\b(water|gas)\s+bill\b`,
					`\bbroadband\b`,
					`\binternet\b`,
					`\b(airtel|jio|vodafone|bsnl|bescom)\b`,
					`\bmobile\s+recharge\b`,
				},
			},
			{
				Category: "Software & Subscriptions",
				Patterns: []string{
					`\b(aws|amazon\s+web\s+services|google\s+cloud|azure|microsoft|adobe|github|slack|zoom|notion|atlassian)\b`,
					`\bsubscription\b`,
					`\bsaas\b`,
				},
			},
			{
				Category: "Office Supplies",
				Patterns: []string{`\boffice\s+supplies\b`, `\bstationery\b`, `\b(printer|toner)\b`},
			},
			{
				Category: "Travel & Transport",
				Patterns: []string{
					`\b(uber|ola|rapido|irctc|makemytrip|indigo)\b`,
					`\b(flight|hotel|taxi|cab)\b`,
					`\b(fuel|petrol|diesel)\b`,
				},
			},
			{
				Category: "Meals & Entertainment",
				Patterns: []string{`\b(swiggy|zomato)\b`, `\brestaurant\b`, `\bcafe\b`, `\bdining\b`},
			},
			{
				Category: "Marketing & Advertising",
				Patterns: []string{`\b(google|facebook|meta)\s+ads\b`, `\badvertis(ing|ement)\b`, `\bmarketing\b`},
			},
			{
				Category: "Professional Fees",
				Patterns: []string{`\blegal\b`, `\b(lawyer|advocate)\b`, `\baudit\b`, `\bchartered\s+accountant\b`},
			},
			{
				Category: "Bank Charges",
				Patterns: []string{`\bbank\s+charges?\b`, `\b(service|sms|processing)\s+(charges?|fee)\b`, `\bannual\s+fee\b`},
			},
			{
				Category: "Taxes",
				Patterns: []string{`\bgst\b`, `\btds\b`, `\b(income|advance)\s+tax\b`},
			},
			{
				Category: "Insurance",
				Patterns: []string{`\binsurance\b`, `\blic\b`, `\bpremium\b`},
			},
			{
				Category: "Loan Repayment",
				Patterns: []string{`\bemi\b`, `\bloan\b`},
			},
			{
				Category: "Inventory & Purchases",
				Patterns: []string{`\bpurchase\b`, `\binventory\b`, `\bsupplier\b`, `\bwholesale\b`, `\braw\s+materials?\b`},
			},
		},
	}
}
