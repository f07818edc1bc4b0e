// Package registration drives the three-step driver form.
//
// Step 1 collects personal details and offers phone verification, step 2
// the emergency contact and vehicle, step 3 the documents. Next refuses to
// leave a step whose required fields are missing. The same flow edits an
// existing record when started with Edit; Submit then updates instead of
// creating.
package registration
