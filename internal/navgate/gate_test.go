package navgate

import "testing"

func TestPendingIssuesNoNavigation(t *testing.T) {
	g := New(RouteDashboard)

	if got := g.Phase(); got != Pending {
		t.Fatalf("phase: got %s, want %s", got, Pending)
	}
	if _, ok := g.Evaluate(); ok {
		t.Fatal("redirect issued while session unresolved")
	}

	// Resolved but not mounted is still Pending.
	g.SetAuthState(false, false)
	if got := g.Phase(); got != Pending {
		t.Fatalf("phase before mount: got %s, want %s", got, Pending)
	}
	if _, ok := g.Evaluate(); ok {
		t.Fatal("redirect issued before view mount")
	}
}

func TestUnauthedAtDashboardRedirectsOnce(t *testing.T) {
	g := New(RouteDashboard)
	g.SetMounted(true)
	g.SetAuthState(false, false)

	if got := g.Phase(); got != Resolving {
		t.Fatalf("phase: got %s, want %s", got, Resolving)
	}

	target, ok := g.Evaluate()
	if !ok || target != RouteWelcome {
		t.Fatalf("first evaluate: got (%s, %v), want (%s, true)", target, ok, RouteWelcome)
	}

	// Two re-renders before the redirect completes: no further redirects.
	for i := 0; i < 2; i++ {
		if _, ok := g.Evaluate(); ok {
			t.Fatalf("re-render %d issued a second redirect", i+1)
		}
	}
	if got := g.Phase(); got != Settled {
		t.Fatalf("phase after decision: got %s, want %s", got, Settled)
	}

	// Redirect completes; the new pair needs no redirect.
	g.SetLocation(RouteWelcome)
	if target, ok := g.Evaluate(); ok {
		t.Fatalf("evaluate at %s issued redirect to %s", RouteWelcome, target)
	}
}

func TestAuthedOutsideGroupRedirectsToDashboard(t *testing.T) {
	g := New(RouteLogin)
	g.SetMounted(true)
	g.SetAuthState(false, true)

	target, ok := g.Evaluate()
	if !ok || target != RouteDashboard {
		t.Fatalf("evaluate: got (%s, %v), want (%s, true)", target, ok, RouteDashboard)
	}
}

func TestInGroupLocationNeedsNoRedirect(t *testing.T) {
	g := New(RouteControl)
	g.SetMounted(true)
	g.SetAuthState(false, true)

	if target, ok := g.Evaluate(); ok {
		t.Fatalf("authed at %s redirected to %s", RouteControl, target)
	}

	g2 := New(RouteSignup)
	g2.SetMounted(true)
	g2.SetAuthState(false, false)
	if target, ok := g2.Evaluate(); ok {
		t.Fatalf("unauthed at %s redirected to %s", RouteSignup, target)
	}
}

func TestLatchResetsOnIdentityChange(t *testing.T) {
	g := New(RouteLogin)
	g.SetMounted(true)
	g.SetAuthState(false, false)

	// Unauthed at /login: no redirect, but the decision latches.
	if _, ok := g.Evaluate(); ok {
		t.Fatal("unexpected redirect for unauthed at /login")
	}
	if got := g.Phase(); got != Settled {
		t.Fatalf("phase: got %s, want %s", got, Settled)
	}

	// Login succeeds: identity change resets the latch.
	g.SetAuthState(false, true)
	target, ok := g.Evaluate()
	if !ok || target != RouteDashboard {
		t.Fatalf("post-login evaluate: got (%s, %v), want (%s, true)", target, ok, RouteDashboard)
	}
	g.SetLocation(RouteDashboard)

	// Logout: reset again, one redirect back out.
	g.SetAuthState(false, false)
	target, ok = g.Evaluate()
	if !ok || target != RouteWelcome {
		t.Fatalf("post-logout evaluate: got (%s, %v), want (%s, true)", target, ok, RouteWelcome)
	}
	if _, ok := g.Evaluate(); ok {
		t.Fatal("second post-logout evaluate issued another redirect")
	}
}

func TestUnchangedIdentityManyRendersOneRedirect(t *testing.T) {
	g := New(RouteSchedule)
	g.SetMounted(true)
	g.SetAuthState(false, false)

	redirects := 0
	for i := 0; i < 25; i++ {
		if _, ok := g.Evaluate(); ok {
			redirects++
		}
		// Re-assert the same auth state, as a re-render would.
		g.SetAuthState(false, false)
	}
	if redirects != 1 {
		t.Fatalf("redirects: got %d, want 1", redirects)
	}
}
