// Package navigation describes the back-office menu and which roles see
// each entry.
package navigation

import "github.com/joao-fontenele/storefront/internal/domain"

type Link struct {
	Name         string      `json:"name"`
	Href         string      `json:"href"`
	RequiredRole domain.Role `json:"-"`
}

var Dashboard = []Link{
	{Name: "Dashboard", Href: "/admin/dashboard"},
	{Name: "Orders", Href: "/admin/orders"},
	{Name: "Products", Href: "/admin/products"},
	{Name: "Admins", Href: "/admin/admins", RequiredRole: domain.RoleSuperAdmin},
}

// Visible keeps links without a required role and links whose required role
// equals role exactly. Roles do not inherit from one another.
func Visible(links []Link, role domain.Role) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.RequiredRole == "" || l.RequiredRole == role {
			out = append(out, l)
		}
	}
	return out
}
