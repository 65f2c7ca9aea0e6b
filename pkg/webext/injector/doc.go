// Package injector composes the script text injected into navigated
// pages. For each navigation it selects the matching content-script rules
// from the registry and deterministically assembles one script: the
// embedded chrome.* API polyfill, every matched CSS payload as a
// style-element statement, then every matched JS payload in an isolating
// function scope.
//
// CSS text is escaped before embedding in a template literal so that
// backslashes, backticks, and "${" sequences in a stylesheet cannot
// break out of the literal or evaluate as an expression.
package injector
