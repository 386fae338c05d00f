// Package dedup detects whether a page image is a visual duplicate of a
// page already accepted into the output directory.
//
// Detection is keypoint based: ORB features with binary descriptors are
// extracted from both images and matched by Hamming distance, so a page
// survives rotation, moderate rescaling and partial occlusion (accepted
// pages may already carry pasted sign overlays). A Lowe ratio test discards
// ambiguous matches and a high good-match count threshold keeps genuinely
// distinct maps from being flagged as duplicates.
//
// The comparison corpus is the set of *.jpg files present in the output
// directory at check time. No index is kept across calls; a page rejected
// later never becomes part of the corpus.
package dedup
