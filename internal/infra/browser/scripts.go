package browser

import (
	"regexp"

	"class_availability_notifier/internal/domain/browsing"

	"github.com/go-rod/rod"
)

// textScript returns the innermost elements whose text contains the needle,
// ignoring case and collapsing whitespace.
const textScript = `(needle) => {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
	const want = norm(needle);
	if (!want || !document.body) return [];
	const out = [];
	for (const el of document.body.querySelectorAll('*')) {
		if (el.closest('script,style,noscript,template')) continue;
		if (!norm(el.textContent).includes(want)) continue;
		let inner = false;
		for (const child of el.children) {
			if (norm(child.textContent).includes(want)) { inner = true; break; }
		}
		if (!inner) out.push(el);
	}
	return out;
}`

// roleScript returns elements with the given role whose accessible name
// matches a case-insensitive pattern.
const roleScript = `(role, pattern) => {
	const selectors = {
		button: 'button, [role="button"], input[type="button"], input[type="submit"]',
		link: 'a[href], [role="link"]',
	};
	const sel = selectors[role] || '[role="' + role + '"]';
	const re = new RegExp(pattern, 'i');
	const name = (el) => (el.getAttribute('aria-label') || el.innerText || el.value || '')
		.replace(/\s+/g, ' ').trim();
	return Array.from(document.querySelectorAll(sel)).filter((el) => re.test(name(el)));
}`

// containerScript returns the outer HTML of the nearest li or div ancestor.
const containerScript = `function () {
	const parent = this.parentElement;
	const c = parent ? parent.closest('li, div') : null;
	return c ? c.outerHTML : '';
}`

const locationScript = `() => location.href`

// evalFor builds the element query for q.
func evalFor(q browsing.Query) *rod.EvalOptions {
	switch {
	case q.Text != "":
		return rod.Eval(textScript, q.Text)
	case q.Role != "":
		return rod.Eval(roleScript, q.Role, "^"+regexp.QuoteMeta(q.Name)+"$")
	default:
		return nil
	}
}
