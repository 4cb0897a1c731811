/*
Package envelope locates the array of pricing packages inside a service's
raw page payload.

# Overview

Every content service wraps its packages differently: a bare array, an object
with a "packages" key, a hero section, a "data" wrapper around any of those.
Locate tries a fixed chain of shape matchers, first success wins:

 1. descend into "data" when it is an object holding packages, hero or
    features, unless the outer object already has a packages array
 2. value.packages
 3. value.hero.packages
 4. value.pricing.packages
 5. the value itself, when it is an array
 6. the first key (in source order) whose array starts with a structured value

An envelope matching nothing yields an empty slice, never an error.

# Decoding

Decode keeps JSON object key order (objects become *Object) and numeric
precision (numbers become json.Number). The matchers also accept plain
map[string]any values, whose keys are scanned in sorted order.
*/
package envelope
