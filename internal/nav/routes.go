package nav

// Page is a logical page key from the closed route table.
type Page string

const (
	PageLanding      Page = "landing"
	PageDashboard    Page = "dashboard"
	PageTransactions Page = "transactions"
	PageSettings     Page = "settings"
	PageLogin        Page = "login"
	PageRegister     Page = "register"
)

// RouteKind distinguishes full pages from modals.
type RouteKind string

const (
	KindPage  RouteKind = "page"
	KindModal RouteKind = "modal"
)

// Route describes how a logical page is rendered: the fragment to fetch, the
// container to inject it into and, for pages, the canonical browser path.
// Modals render over whatever page is current and have no path.
type Route struct {
	Page      Page
	URL       string
	Container string
	Kind      RouteKind
	Path      string
}

const (
	// ContentContainer receives page fragments.
	ContentContainer = "content"
	// ModalContainer receives modal fragments.
	ModalContainer = "modal"
)

func defaultRoutes() map[Page]Route {
	return map[Page]Route{
		PageLanding:      {Page: PageLanding, URL: "/fragments/landing.html", Container: ContentContainer, Kind: KindPage, Path: "/"},
		PageDashboard:    {Page: PageDashboard, URL: "/fragments/dashboard.html", Container: ContentContainer, Kind: KindPage, Path: "/dashboard"},
		PageTransactions: {Page: PageTransactions, URL: "/fragments/transactions.html", Container: ContentContainer, Kind: KindPage, Path: "/transactions"},
		PageSettings:     {Page: PageSettings, URL: "/fragments/settings.html", Container: ContentContainer, Kind: KindPage, Path: "/settings"},
		PageLogin:        {Page: PageLogin, URL: "/fragments/login.html", Container: ModalContainer, Kind: KindModal},
		PageRegister:     {Page: PageRegister, URL: "/fragments/register.html", Container: ModalContainer, Kind: KindModal},
	}
}

// authRequired pages are denied to anonymous visitors.
var authRequired = map[Page]bool{
	PageDashboard:    true,
	PageTransactions: true,
	PageSettings:     true,
}

// anonOnly pages are denied to authenticated users, who are sent to the
// dashboard instead so a logged-in user never sees the login screen.
var anonOnly = map[Page]bool{
	PageLanding:  true,
	PageLogin:    true,
	PageRegister: true,
}

// PagePaths returns the canonical path of every page route.
func PagePaths() []string {
	var paths []string
	for _, r := range defaultRoutes() {
		if r.Kind == KindPage {
			paths = append(paths, r.Path)
		}
	}
	return paths
}
