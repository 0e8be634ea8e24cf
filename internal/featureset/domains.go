package featureset

// Regions groups countries by sales pattern.
var Regions = FeatureSet{
	Domain:   "regions",
	IDColumn: "country",
	Features: []string{
		"total_orders",
		"total_revenue",
		"avg_order_value",
		"unique_customers",
		"unique_categories",
		"avg_shipping_time",
	},
	Query: `
SELECT
    c.country,
    COUNT(DISTINCT o.order_id) AS total_orders,
    SUM(od.quantity * od.unit_price) AS total_revenue,
    AVG(od.quantity * od.unit_price) AS avg_order_value,
    COUNT(DISTINCT o.customer_id) AS unique_customers,
    COUNT(DISTINCT p.category_id) AS unique_categories,
    AVG(EXTRACT(DAY FROM (o.shipped_date - o.order_date))) AS avg_shipping_time
FROM orders o
JOIN customers c ON o.customer_id = c.customer_id
JOIN order_details od ON o.order_id = od.order_id
JOIN products p ON od.product_id = p.product_id
GROUP BY c.country`,
	Views: [][2]string{
		{"total_orders", "total_revenue"},
		{"unique_customers", "avg_order_value"},
		{"avg_shipping_time", "total_revenue"},
	},
}

// Customers segments customers by purchasing behavior.
var Customers = FeatureSet{
	Domain:   "customers",
	IDColumn: "customer_id",
	Features: []string{
		"total_orders",
		"total_spent",
		"avg_order_value",
		"unique_categories",
		"customer_lifetime_days",
	},
	Query: `
SELECT
    c.customer_id,
    COUNT(DISTINCT o.order_id) AS total_orders,
    SUM(od.quantity * od.unit_price) AS total_spent,
    AVG(od.quantity * od.unit_price) AS avg_order_value,
    COUNT(DISTINCT p.category_id) AS unique_categories,
    EXTRACT(DAY FROM (MAX(o.order_date) - MIN(o.order_date))) AS customer_lifetime_days
FROM customers c
JOIN orders o ON c.customer_id = o.customer_id
JOIN order_details od ON o.order_id = od.order_id
JOIN products p ON od.product_id = p.product_id
GROUP BY c.customer_id`,
	Views: [][2]string{
		{"total_orders", "total_spent"},
		{"avg_order_value", "unique_categories"},
		{"customer_lifetime_days", "total_spent"},
	},
}

// Products groups products by demand.
var Products = FeatureSet{
	Domain:   "products",
	IDColumn: "product_id",
	Features: []string{
		"avg_price",
		"order_frequency",
		"avg_quantity_per_order",
		"unique_customers",
	},
	Query: `
SELECT
    p.product_id,
    AVG(od.unit_price) AS avg_price,
    COUNT(DISTINCT o.order_id) AS order_frequency,
    AVG(od.quantity) AS avg_quantity_per_order,
    COUNT(DISTINCT o.customer_id) AS unique_customers
FROM products p
JOIN order_details od ON p.product_id = od.product_id
JOIN orders o ON od.order_id = o.order_id
GROUP BY p.product_id`,
	Views: [][2]string{
		{"avg_price", "order_frequency"},
		{"avg_quantity_per_order", "unique_customers"},
	},
}
