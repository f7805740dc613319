package aggcache

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mostafa-tamer/Large-Scale-E-Commerce-Database/internal/database/common"
)

// Definition names an aggregate and the query that defines it. The query
// must be a SELECT over the base tables; the cache materializes its full
// result set as the snapshot.
type Definition struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

const categoryRevenueQuery = `
SELECT c.name AS category_name, SUM(od.unit_price * od.quantity) AS revenue
FROM categories c
JOIN products p ON p.category_id = c.id
JOIN order_details od ON od.product_id = p.id
JOIN orders o ON o.id = od.order_id
GROUP BY c.name`

const topSpendersQuery = `
SELECT cu.id AS customer_id, cu.first_name, cu.last_name,
       SUM(od.unit_price * od.quantity) AS total_spent
FROM customers cu
JOIN orders o ON o.customer_id = cu.id
JOIN order_details od ON od.order_id = o.id
GROUP BY cu.id, cu.first_name, cu.last_name
ORDER BY total_spent DESC
LIMIT %d`

// Builtin returns the two aggregates every deployment carries: per-category
// revenue and the top-N spenders by total spend.
func Builtin(topN int) []Definition {
	if topN <= 0 {
		topN = 10
	}
	return []Definition{
		{Name: "category_revenue", Query: categoryRevenueQuery},
		{Name: "top_spenders", Query: fmt.Sprintf(topSpendersQuery, topN)},
	}
}

// LoadDefinitionsFile reads extra aggregate definitions from a YAML file.
func LoadDefinitionsFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate definitions: %w", err)
	}

	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse aggregate definitions: %w", err)
	}

	for _, def := range defs {
		if err := common.ValidateIdentifier(def.Name); err != nil {
			return nil, fmt.Errorf("invalid aggregate name %q: %w", def.Name, err)
		}
		if def.Query == "" {
			return nil, fmt.Errorf("aggregate %q has an empty query", def.Name)
		}
	}
	return defs, nil
}
