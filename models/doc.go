// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

Meal types are breakfast, lunch and dinner. A vote for SkipItemID records
that the student will not eat that meal.

Validate checks request structs against their validate tags and returns a
*ValidationError naming the JSON field. Invalid builds one by hand.
*/
package models
